package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
)

func writeFile(t *testing.T, root, rel, data string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
}

func issuesFor(result *Result, rule string) []Issue {
	var out []Issue
	for _, is := range result.Issues {
		if is.Rule == rule {
			out = append(out, is)
		}
	}
	return out
}

func TestFrontmatterRule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.md", "---\ntitle: Fine\ntags: [a, b]\ndate: 2024-01-02\ndraft: false\n---\nbody\n")
	writeFile(t, root, "none.md", "just text\n")
	writeFile(t, root, "open.md", "---\ntitle: open\n")
	writeFile(t, root, "bad.md", "---\ntitle: [unclosed\n---\n")
	writeFile(t, root, "types.md", "---\ntitle: 42\ntags:\n  - 1\ncreated: someday\npublish: \"yes\"\n---\n")
	writeFile(t, root, "toml.md", "+++\ntitle = \"T\"\ndraft = \"no\"\n+++\n")
	writeFile(t, root, "stub.md", "---\ntitle: Stub\ntags: [ue5]\n---")

	res, err := NewLinter(&Config{}).LintPath(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 7, res.FilesTotal)

	byFile := map[string][]Issue{}
	for _, is := range issuesFor(res, "frontmatter-wellformed") {
		byFile[is.FilePath] = append(byFile[is.FilePath], is)
	}
	assert.Empty(t, byFile["ok.md"])
	assert.Empty(t, byFile["none.md"])
	assert.Empty(t, byFile["stub.md"], "a closing fence may end the file")

	require.Len(t, byFile["open.md"], 1)
	assert.Equal(t, SeverityError, byFile["open.md"][0].Severity)
	assert.Equal(t, "Front matter is not closed", byFile["open.md"][0].Message)

	require.Len(t, byFile["bad.md"], 1)
	assert.Equal(t, SeverityError, byFile["bad.md"][0].Severity)

	types := byFile["types.md"]
	require.Len(t, types, 4)
	for _, is := range types {
		assert.Equal(t, SeverityWarning, is.Severity)
	}
	assert.Equal(t, 2, types[0].Line, "title is on the first front matter line")

	require.Len(t, byFile["toml.md"], 1)
	assert.Contains(t, byFile["toml.md"][0].Message, "'draft'")
	assert.Equal(t, 3, byFile["toml.md"][0].Line)
}

func TestInternalLinksRule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "Links: [[b]], [b again](notes/b.md), ![img](img/x.png), [[missing]]\n\n"+
		"[ext](https://example.com) [mail](mailto:x@example.com) [anchor](#top) [gone](nowhere.md)\n\n"+
		"`[[in code]]`\n")
	writeFile(t, root, "notes/b.md", "[[a#Heading]]\n")
	writeFile(t, root, "img/x.png", "png")

	res, err := NewLinter(&Config{LinkStrategy: content.StrategyShortest}).LintPath(context.Background(), root)
	require.NoError(t, err)

	broken := issuesFor(res, "internal-links-resolve")
	require.Len(t, broken, 2)
	assert.Equal(t, "a.md", broken[0].FilePath)
	assert.Equal(t, "Broken link: missing", broken[0].Message)
	assert.Equal(t, 1, broken[0].Line)
	assert.Equal(t, "Broken link: nowhere.md", broken[1].Message)
	assert.Equal(t, 3, broken[1].Line)
	assert.Equal(t, SeverityError, broken[0].Severity)
	assert.Equal(t, 2, res.ExitCode(false))
}

func TestFilenameRule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Q&A.md", "x\n")
	writeFile(t, root, "fine name.md", "x\n")
	writeFile(t, root, "notes.md.bak", "x\n")

	res, err := NewLinter(&Config{}).LintPath(context.Background(), root)
	require.NoError(t, err)
	issues := issuesFor(res, "filename-conventions")
	require.Len(t, issues, 2)
	assert.Equal(t, "Q&A.md", issues[0].FilePath)
	assert.Contains(t, issues[0].Explanation, `"Q-and-A"`)
	assert.Equal(t, "notes.md.bak", issues[1].FilePath)
	assert.Equal(t, 1, res.ExitCode(false))
	assert.Equal(t, 0, res.ExitCode(true))
}

func TestQuietDropsWarnings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Q&A.md", "---\ndraft: maybe\n---\n")
	res, err := NewLinter(&Config{Quiet: true}).LintPath(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 0, res.ExitCode(true))
}

func TestIgnorePatternsAndSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "private/secret.md", "---\nopen\n")
	writeFile(t, root, "a.md", "[[b]]\n")
	writeFile(t, root, "b.md", "[[missing]]\n")

	res, err := NewLinter(&Config{IgnorePatterns: []string{"private"}}).LintPath(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesTotal)

	single, err := NewLinter(&Config{}).LintPath(context.Background(), filepath.Join(root, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, single.FilesTotal)
	assert.Empty(t, single.Issues, "a.md links to b.md which exists next to it")
}

func TestFormatters(t *testing.T) {
	res := &Result{FilesTotal: 2, Issues: []Issue{
		{FilePath: "a.md", Severity: SeverityError, Rule: "internal-links-resolve", Message: "Broken link: x", Line: 3, Fix: "Fix it"},
		{FilePath: "b.md", Severity: SeverityWarning, Rule: "filename-conventions", Message: "bad name"},
	}}

	var text bytes.Buffer
	require.NoError(t, NewTextFormatter(false).Format(&text, res, "content"))
	out := text.String()
	assert.Contains(t, out, "Checking content in: content")
	assert.Contains(t, out, "✗ a.md:3")
	assert.Contains(t, out, "ERROR: Broken link: x [internal-links-resolve]")
	assert.Contains(t, out, "Fix: Fix it")
	assert.Contains(t, out, "1 error\n")
	assert.Contains(t, out, "1 warning\n")
	assert.NotContains(t, out, "\x1b[", "no ANSI codes without color")

	var js bytes.Buffer
	f, err := NewFormatter("json", false)
	require.NoError(t, err)
	require.NoError(t, f.Format(&js, res, "content"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.InDelta(t, 1, decoded["error_count"], 0)
	issues := decoded["issues"].([]any)
	assert.Equal(t, "ERROR", issues[0].(map[string]any)["severity"])

	_, err = NewFormatter("xml", false)
	require.Error(t, err)
}
