package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the front matter language, keyed by its delimiter.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Delimiter returns the fence line used by the format.
func (f Format) Delimiter() string {
	if f == FormatTOML {
		return "+++"
	}
	return "---"
}

// FormatForDelimiter maps a fence ("---" or "+++") to its Format.
func FormatForDelimiter(delim string) (Format, bool) {
	switch delim {
	case "---":
		return FormatYAML, true
	case "+++":
		return FormatTOML, true
	}
	return FormatNone, false
}

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline/trailing newline shape and does not
// attempt to preserve original YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// ErrMissingClosingDelimiter indicates the document started with a front
// matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Split separates front matter (`---` YAML or `+++` TOML) from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input.
func Split(content []byte) (fm []byte, body []byte, format Format, had bool, style Style, err error) {
	style = detectStyle(content)
	nl := style.Newline

	for _, f := range []Format{FormatYAML, FormatTOML} {
		fence := f.Delimiter()
		open := []byte(fence + nl)
		if !bytes.HasPrefix(content, open) {
			continue
		}

		start := len(open)
		rest := content[start:]
		if bytes.HasPrefix(rest, open) {
			return []byte{}, rest[len(open):], f, true, style, nil
		}
		if string(rest) == fence {
			return []byte{}, []byte{}, f, true, style, nil
		}

		closeSeq := []byte(nl + fence + nl)
		idx := bytes.Index(rest, closeSeq)
		if idx < 0 {
			// A closing fence may also end the file.
			if !bytes.HasSuffix(rest, []byte(nl+fence)) {
				return nil, nil, f, false, style, ErrMissingClosingDelimiter
			}
			end := len(rest) - len(fence)
			return rest[:end], []byte{}, f, true, style, nil
		}

		end := start + idx + len(nl)
		bodyStart := start + idx + len(closeSeq)
		return content[start:end], content[bodyStart:], f, true, style, nil
	}

	return nil, content, FormatNone, false, style, nil
}

// Join reassembles a document from raw front matter and body.
//
// If had is false, Join returns body as-is. Otherwise the front matter is
// fenced with the format's delimiter and the newline style captured in Style.
// An empty body without a trailing newline ends the file at the closing fence.
func Join(fm []byte, body []byte, format Format, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	fence := []byte(format.Delimiter() + nl)

	out := make([]byte, 0, 2*len(fence)+len(fm)+len(body))
	out = append(out, fence...)
	out = append(out, fm...)
	if len(body) == 0 && !style.HasTrailingNewline {
		return append(out, format.Delimiter()...)
	}
	out = append(out, fence...)
	out = append(out, body...)
	return out
}

// Parse decodes raw front matter (without delimiters) into a map.
func Parse(fm []byte, format Format) (map[string]any, error) {
	switch format {
	case FormatTOML:
		return ParseTOML(fm)
	case FormatYAML, FormatNone:
		return ParseYAML(fm)
	default:
		return nil, fmt.Errorf("unsupported front matter format %q", format)
	}
}

// ParseYAML parses raw YAML front matter into a map.
func ParseYAML(fm []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(fm)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ParseTOML parses raw TOML front matter into a map. TOML local dates and
// times are converted to time.Time in UTC so callers see one date type.
func ParseTOML(fm []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(fm)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := toml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return map[string]any{}, nil
	}
	for k, v := range fields {
		fields[k] = normalizeTOML(v)
	}
	return fields, nil
}

func normalizeTOML(v any) any {
	switch vv := v.(type) {
	case toml.LocalDate:
		return vv.AsTime(time.UTC)
	case toml.LocalDateTime:
		return vv.AsTime(time.UTC)
	case map[string]any:
		for k, inner := range vv {
			vv[k] = normalizeTOML(inner)
		}
		return vv
	case []any:
		for i, inner := range vv {
			vv[i] = normalizeTOML(inner)
		}
		return vv
	default:
		return v
	}
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			break
		}
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
