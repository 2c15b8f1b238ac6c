package language

import "strings"

type entry struct {
	iso1    string
	iso2    string
	alt     string // bibliographic ISO 639-2 code where it differs
	display string
}

// languages lists the codes Whisper models accept that are also common as
// container stream tags.
var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ja", "jpn", "", "Japanese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "zho", "chi", "Chinese"},
	{"ru", "rus", "", "Russian"},
	{"ar", "ara", "", "Arabic"},
	{"hi", "hin", "", "Hindi"},
	{"nl", "nld", "dut", "Dutch"},
	{"pl", "pol", "", "Polish"},
	{"sv", "swe", "", "Swedish"},
	{"da", "dan", "", "Danish"},
	{"no", "nor", "", "Norwegian"},
	{"fi", "fin", "", "Finnish"},
	{"tr", "tur", "", "Turkish"},
	{"uk", "ukr", "", "Ukrainian"},
	{"cs", "ces", "cze", "Czech"},
	{"el", "ell", "gre", "Greek"},
	{"he", "heb", "", "Hebrew"},
	{"hu", "hun", "", "Hungarian"},
	{"id", "ind", "", "Indonesian"},
	{"vi", "vie", "", "Vietnamese"},
	{"th", "tha", "", "Thai"},
	{"ro", "ron", "rum", "Romanian"},
	{"ca", "cat", "", "Catalan"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.iso1] = e
		m[e.iso2] = e
		if e.alt != "" {
			m[e.alt] = e
		}
		m[strings.ToLower(e.display)] = e
	}
	return m
}()

func lookup(code string) *entry {
	code = clean(code)
	if e, ok := index[code]; ok {
		return e
	}
	// IETF tags such as en-US or pt_BR
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return index[code[:i]]
	}
	return nil
}

func clean(code string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "\u0000", "")))
}

// ToISO2 converts a recognized code, IETF tag or English name to ISO 639-1.
// Unknown two-letter input passes through; anything else yields "".
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.iso1
	}
	if c := clean(code); len(c) == 2 {
		return c
	}
	return ""
}

// ToISO3 converts a recognized code to ISO 639-2. Unknown three-letter input
// passes through; anything else yields "und".
func ToISO3(code string) string {
	if e := lookup(code); e != nil {
		return e.iso2
	}
	if c := clean(code); len(c) == 3 {
		return c
	}
	return "und"
}

// DisplayName returns a human-readable name, "Unknown" for empty input, or
// the upper-cased code when unrecognized.
func DisplayName(code string) string {
	if clean(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(clean(code))
}

// Known reports whether code maps to a listed language.
func Known(code string) bool {
	return lookup(code) != nil
}

// Matches reports whether two codes name the same language, so "en" matches
// "eng" and "en-US".
func Matches(a, b string) bool {
	a, b = ToISO2(a), ToISO2(b)
	return a != "" && a == b
}

// FromTags extracts the language from stream metadata tags.
func FromTags(tags map[string]string) string {
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"} {
		if value := clean(tags[key]); value != "" {
			return value
		}
	}
	return ""
}
