package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontMatter(t *testing.T) {
	input := []byte("# Title\n\nBody\n")

	fm, body, format, had, style, err := Split(input)
	require.NoError(t, err)
	assert.False(t, had)
	assert.Equal(t, FormatNone, format)
	assert.Nil(t, fm)
	assert.Equal(t, input, body)
	assert.Equal(t, "\n", style.Newline)
	assert.True(t, style.HasTrailingNewline)
}

func TestSplit_YAML(t *testing.T) {
	input := []byte("---\ntitle: x\n---\n# Body\n")

	fm, body, format, had, _, err := Split(input)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, FormatYAML, format)
	assert.Equal(t, "title: x\n", string(fm))
	assert.Equal(t, "# Body\n", string(body))
}

func TestSplit_TOML(t *testing.T) {
	input := []byte("+++\ntitle = \"x\"\n+++\nBody")

	fm, body, format, had, _, err := Split(input)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, FormatTOML, format)
	assert.Equal(t, "title = \"x\"\n", string(fm))
	assert.Equal(t, "Body", string(body))
}

func TestSplit_EmptyFrontMatter(t *testing.T) {
	fm, body, _, had, _, err := Split([]byte("---\n---\nBody\n"))
	require.NoError(t, err)
	assert.True(t, had)
	assert.Empty(t, fm)
	assert.Equal(t, "Body\n", string(body))
}

func TestSplit_MissingClosingDelimiter(t *testing.T) {
	_, _, _, _, _, err := Split([]byte("---\ntitle: x\n# Body\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)

	_, _, _, _, _, err = Split([]byte("---\ntitle: x\n---more"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestSplit_ClosingFenceAtEOF(t *testing.T) {
	fm, body, format, had, _, err := Split([]byte("---\ntitle: Stub\ntags: [ue5]\n---"))
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, FormatYAML, format)
	assert.Equal(t, "title: Stub\ntags: [ue5]\n", string(fm))
	assert.Empty(t, body)

	fields, err := ParseYAML(fm)
	require.NoError(t, err)
	assert.Equal(t, "Stub", fields["title"])

	fm, body, _, had, _, err = Split([]byte("---\r\ntitle: x\r\n---"))
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, "title: x\r\n", string(fm))
	assert.Empty(t, body)

	fm, _, _, had, _, err = Split([]byte("+++\n+++"))
	require.NoError(t, err)
	assert.True(t, had)
	assert.Empty(t, fm)
}

func TestSplitJoin_RoundTripIsExact(t *testing.T) {
	inputs := []string{
		"---\ntitle: x\ntags: [a, b]\n---\n# Body\n",
		"---\r\ntitle: x\r\n---\r\nBody\r\n",
		"+++\ntitle = \"x\"\n+++\nBody",
		"---\n---\nBody",
		"---\ntitle: Stub\ntags: [ue5]\n---",
		"---\r\ntitle: x\r\n---",
		"---\n---",
		"---\ntitle: x\n---\n",
		"Plain body\n",
		"",
	}
	for _, in := range inputs {
		fm, body, format, had, style, err := Split([]byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, in, string(Join(fm, body, format, had, style)), in)
	}
}

func TestParseYAML(t *testing.T) {
	fields, err := Parse([]byte("title: Hello\ndraft: true\ntags:\n  - a\n  - b\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fields["title"])
	assert.Equal(t, true, fields["draft"])
	assert.Equal(t, []any{"a", "b"}, fields["tags"])

	empty, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Parse([]byte("- just\n- a list\n"), FormatYAML)
	require.Error(t, err)
}

func TestParseTOML_NormalizesLocalDates(t *testing.T) {
	fields, err := Parse([]byte("title = \"Hello\"\ndate = 2024-03-01\n"), FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fields["title"])
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), fields["date"])
}

func TestSerializeYAML_SortedKeys(t *testing.T) {
	out, err := SerializeYAML(map[string]any{
		"title": "x",
		"draft": false,
		"meta":  map[string]any{"z": 1, "a": "b"},
	}, Style{Newline: "\n"})
	require.NoError(t, err)
	assert.Equal(t, "draft: false\nmeta:\n  a: b\n  z: 1\ntitle: x\n", string(out))
}

func TestSerializeYAML_CRLF(t *testing.T) {
	out, err := SerializeYAML(map[string]any{"a": 1, "b": "c"}, Style{Newline: "\r\n"})
	require.NoError(t, err)
	assert.Equal(t, "a: 1\r\nb: c\r\n", string(out))
}

func TestSerializeTOML(t *testing.T) {
	out, err := Serialize(map[string]any{"title": "x"}, FormatTOML, Style{})
	require.NoError(t, err)
	fields, err := ParseTOML(out)
	require.NoError(t, err)
	assert.Equal(t, "x", fields["title"])
}

func TestFormatForDelimiter(t *testing.T) {
	f, ok := FormatForDelimiter("+++")
	assert.True(t, ok)
	assert.Equal(t, FormatTOML, f)
	_, ok = FormatForDelimiter("===")
	assert.False(t, ok)
}
