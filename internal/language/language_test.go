package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := map[string]string{
		"en":       "en",
		"ENG":      "en",
		"fre":      "fr",
		"german":   "de",
		"pt-BR":    "pt",
		"zh_Hant":  "zh",
		"xx":       "xx",
		"xyz":      "",
		"":         "",
		" eng\x00": "en",
	}
	for in, want := range tests {
		if got := ToISO2(in); got != want {
			t.Errorf("ToISO2(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToISO3(t *testing.T) {
	tests := map[string]string{
		"en":  "eng",
		"ger": "deu",
		"qaa": "qaa",
		"q":   "und",
		"":    "und",
	}
	for in, want := range tests {
		if got := ToISO3(in); got != want {
			t.Errorf("ToISO3(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("jpn"); got != "Japanese" {
		t.Fatalf("DisplayName(jpn) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(\"\") = %q", got)
	}
	if got := DisplayName("tlh"); got != "TLH" {
		t.Fatalf("DisplayName(tlh) = %q", got)
	}
}

func TestMatches(t *testing.T) {
	if !Matches("en", "eng") || !Matches("en-US", "English") {
		t.Fatal("expected English variants to match")
	}
	if Matches("en", "de") || Matches("", "") || Matches("xyz", "xyz") {
		t.Fatal("unexpected match")
	}
}

func TestFromTagsAndKnown(t *testing.T) {
	if got := FromTags(map[string]string{"LANGUAGE": " ENG "}); got != "eng" {
		t.Fatalf("FromTags = %q", got)
	}
	if got := FromTags(nil); got != "" {
		t.Fatalf("FromTags(nil) = %q", got)
	}
	if !Known("fr") || Known("zz") {
		t.Fatal("Known mismatch")
	}
}
