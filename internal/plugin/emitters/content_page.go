package emitters

import (
	"context"
	"sort"
	"strconv"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
	"git.home.luguber.info/inful/gardenbuild/internal/theme"
)

var (
	contentPageSchema = noOptions("One HTML page per published document")
	folderPageSchema  = noOptions("Listing pages for folders without an index note")
	tagPageSchema     = noOptions("A page per tag plus a tag index")
	notFoundSchema    = noOptions("The 404 page")
)

// ContentPage writes <slug>.html for every published document. Pages of
// documents marked unchanged are kept from the previous build.
type ContentPage struct{ plugin.Base }

func newContentPage(map[string]any) (plugin.Plugin, error) {
	return &ContentPage{plugin.Base{Meta: meta(ContentPageName, contentPageSchema)}}, nil
}

func (e *ContentPage) Emit(ctx context.Context, site *plugin.Site, out plugin.Output) ([]string, error) {
	written := make([]string, 0, len(site.Documents))
	for _, d := range site.Documents {
		rel := content.OutputPath(d.Slug)
		if site.Unchanged[d.Slug] && out.Exists(rel) {
			written = append(written, rel)
			continue
		}
		p, err := writePage(ctx, out, rel, theme.LayoutContent, contentPage(site, d))
		if err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}

// FolderPage writes <folder>/index.html listing the folder's notes and
// sub-folders.
type FolderPage struct{ plugin.Base }

func newFolderPage(map[string]any) (plugin.Plugin, error) {
	return &FolderPage{plugin.Base{Meta: meta(FolderPageName, folderPageSchema)}}, nil
}

func (e *FolderPage) Emit(ctx context.Context, site *plugin.Site, out plugin.Output) ([]string, error) {
	all := folders(site)
	var written []string
	for _, folder := range generatedFolders(site) {
		slug := indexSlug(folder)
		p := basePage(site, slug, folderTitle(site, folder))

		var subs []theme.ListItem
		for _, f := range all {
			if f != "" && parentFolder(f) == folder {
				subs = append(subs, theme.ListItem{Title: folderTitle(site, f), URL: site.URL(indexSlug(f))})
			}
		}
		var docs []*content.Document
		for _, d := range site.Documents {
			if parentFolder(d.Slug) == folder && d.Slug != slug {
				docs = append(docs, d)
			}
		}
		sort.Slice(subs, func(i, j int) bool { return subs[i].Title < subs[j].Title })
		p.Items = subs
		for _, d := range site.NewestFirst(docs) {
			p.Items = append(p.Items, listItem(site, d))
		}

		rel, err := writePage(ctx, out, content.OutputPath(slug), theme.LayoutList, p)
		if err != nil {
			return written, err
		}
		written = append(written, rel)
	}
	return written, nil
}

func parentFolder(slug string) string {
	for i := len(slug) - 1; i >= 0; i-- {
		if slug[i] == '/' {
			return slug[:i]
		}
	}
	return ""
}

// TagPage writes tags/<tag>.html for every tag and tags/index.html.
type TagPage struct{ plugin.Base }

func newTagPage(map[string]any) (plugin.Plugin, error) {
	return &TagPage{plugin.Base{Meta: meta(TagPageName, tagPageSchema)}}, nil
}

func (e *TagPage) Emit(ctx context.Context, site *plugin.Site, out plugin.Output) ([]string, error) {
	tags := allTags(site)
	written := make([]string, 0, len(tags)+1)

	index := basePage(site, "tags/index", "All Tags")
	for _, tag := range tags {
		docs := site.NewestFirst(taggedWith(site, tag))
		p := basePage(site, "tags/"+content.SlugifyTag(tag), "Tag: "+tag)
		for _, d := range docs {
			p.Items = append(p.Items, listItem(site, d))
		}
		rel, err := writePage(ctx, out, tagOutputPath(tag), theme.LayoutList, p)
		if err != nil {
			return written, err
		}
		written = append(written, rel)
		index.Items = append(index.Items, theme.ListItem{Title: "#" + tag, URL: site.TagURL(tag), Description: itemCount(len(docs))})
	}

	rel, err := writePage(ctx, out, content.OutputPath("tags/index"), theme.LayoutList, index)
	if err != nil {
		return written, err
	}
	return append(written, rel), nil
}

func tagOutputPath(tag string) string {
	return content.OutputPath("tags/" + content.SlugifyTag(tag))
}

func itemCount(n int) string {
	if n == 1 {
		return "1 item with this tag"
	}
	return strconv.Itoa(n) + " items with this tag"
}

// NotFound writes 404.html.
type NotFound struct{ plugin.Base }

func newNotFound(map[string]any) (plugin.Plugin, error) {
	return &NotFound{plugin.Base{Meta: meta(NotFoundPageName, notFoundSchema)}}, nil
}

func (e *NotFound) Emit(ctx context.Context, site *plugin.Site, out plugin.Output) ([]string, error) {
	p := basePage(site, "404", "404: Not Found")
	p.CanonicalURL = ""
	rel, err := writePage(ctx, out, "404.html", theme.LayoutNotFound, p)
	if err != nil {
		return nil, err
	}
	return []string{rel}, nil
}
