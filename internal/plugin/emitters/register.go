// Package emitters holds the built-in emit-stage plugins. Each emitter
// writes its files through plugin.Output and returns the paths it wrote.
package emitters

import (
	"sync"

	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
	"git.home.luguber.info/inful/gardenbuild/internal/theme"
)

const version = "v1"

// Emitter names.
const (
	ContentPageName        = "content-page"
	FolderPageName         = "folder-page"
	TagPageName            = "tag-page"
	ContentIndexName       = "content-index"
	AliasRedirectsName     = "alias-redirects"
	AssetsName             = "assets"
	StaticName             = "static"
	ComponentResourcesName = "component-resources"
	NotFoundPageName       = "not-found-page"
	CNAMEName              = "cname"
)

var loadTheme = sync.OnceValues(theme.New)

func meta(name string, schema map[string]any) plugin.Metadata {
	d, _ := schema["description"].(string)
	return plugin.Metadata{Name: name, Version: version, Type: plugin.TypeEmitter, Description: d}
}

func noOptions(description string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"description":          description,
		"additionalProperties": false,
	}
}

// Register adds every built-in emitter to r.
func Register(r *plugin.Registry) error {
	table := []struct {
		name   string
		schema map[string]any
		ctor   plugin.Constructor
	}{
		{ContentPageName, contentPageSchema, newContentPage},
		{FolderPageName, folderPageSchema, newFolderPage},
		{TagPageName, tagPageSchema, newTagPage},
		{ContentIndexName, contentIndexSchema, newContentIndex},
		{AliasRedirectsName, aliasRedirectsSchema, newAliasRedirects},
		{AssetsName, assetsSchema, newAssets},
		{StaticName, staticSchema, newStatic},
		{ComponentResourcesName, componentResourcesSchema, newComponentResources},
		{NotFoundPageName, notFoundSchema, newNotFound},
		{CNAMEName, cnameSchema, newCNAME},
	}
	for _, e := range table {
		if err := r.Register(e.name, plugin.TypeEmitter, version, e.schema, e.ctor); err != nil {
			return err
		}
	}
	return nil
}

// selected reports whether the site configuration enables emitter name.
func selected(site *plugin.Site, name string) bool {
	for _, sel := range site.Config.Plugins.Emitters {
		if sel.Name == name {
			return true
		}
	}
	return false
}
