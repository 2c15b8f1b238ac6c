package output

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"murmur/internal/services"
)

// Format selects an output artifact.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatSubtitle Format = "subtitle"
	FormatSRT      Format = "srt"
	FormatVTT      Format = "vtt"
	FormatJSON     Format = "json"
)

var extensions = map[Format]string{
	FormatText:     ".txt",
	FormatSubtitle: ".sub.txt",
	FormatSRT:      ".srt",
	FormatVTT:      ".vtt",
	FormatJSON:     ".json",
}

var aliases = map[string]Format{
	"txt":    FormatText,
	"sub":    FormatSubtitle,
	"subrip": FormatSRT,
	"webvtt": FormatVTT,
}

// Formats lists every supported format in a stable order.
func Formats() []Format {
	return []Format{FormatText, FormatSubtitle, FormatSRT, FormatVTT, FormatJSON}
}

// ParseFormat resolves a selector such as "text" or "SRT". Unknown selectors
// return an error matching services.ErrFormat.
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if f, ok := aliases[key]; ok {
		return f, nil
	}
	f := Format(key)
	if _, ok := extensions[f]; ok {
		return f, nil
	}
	return "", services.Wrap(services.ErrFormat, services.StageFormat, "parse",
		fmt.Sprintf("unknown output format %q (supported: %s)", s, supported()), nil)
}

// ParseFormats resolves selectors in order, dropping duplicates. Comma
// separated values are split. An empty list yields text.
func ParseFormats(selectors []string) ([]Format, error) {
	var out []Format
	for _, sel := range selectors {
		for _, part := range strings.Split(sel, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := ParseFormat(part)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	if len(out) == 0 {
		out = []Format{FormatText}
	}
	return out, nil
}

// Extension returns the file extension for f, including the leading dot.
func (f Format) Extension() string {
	return extensions[f]
}

// Path returns the default artifact path for input inside dir. An empty dir
// places the artifact next to the input.
func Path(input, dir string, f Format) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base+f.Extension())
}

func supported() string {
	names := make([]string, 0, len(extensions))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
