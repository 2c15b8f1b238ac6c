// Package tracks chooses which audio stream of a multi-track container to
// transcribe.
//
// Candidates are ranked by requested language, then by whether the stream
// looks like primary dialogue (commentary and audio-description tracks are
// demoted), then the default disposition flag, then container order.
package tracks

import (
	"strconv"
	"strings"

	"murmur/internal/language"
	"murmur/internal/media/ffprobe"
)

// Selection describes the chosen audio stream.
type Selection struct {
	Stream ffprobe.Stream
	// Index is the container stream index, or -1 when no audio stream exists.
	Index  int
	Reason string
}

// Label returns a short human-readable summary of the selected stream.
func (s Selection) Label() string {
	if s.Index < 0 {
		return ""
	}
	parts := []string{"#" + strconv.Itoa(s.Index)}
	if lang := language.FromTags(s.Stream.Tags); lang != "" {
		parts = append(parts, lang)
	}
	if codec := strings.TrimSpace(s.Stream.CodecName); codec != "" {
		parts = append(parts, codec)
	}
	if s.Stream.Channels > 0 {
		parts = append(parts, strconv.Itoa(s.Stream.Channels)+"ch")
	}
	return strings.Join(parts, " ")
}

// Select picks the audio stream to transcribe. wantLanguage is an ISO 639
// code ("en", "eng", "de"); empty means no preference.
func Select(streams []ffprobe.Stream, wantLanguage string) Selection {
	wantLanguage = strings.ToLower(strings.TrimSpace(wantLanguage))
	best := Selection{Index: -1}
	bestScore := 0.0
	order := 0
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		score, reason := score(stream, wantLanguage, order)
		if best.Index < 0 || score > bestScore {
			best = Selection{Stream: stream, Index: stream.Index, Reason: reason}
			bestScore = score
		}
		order++
	}
	return best
}

func score(stream ffprobe.Stream, wantLanguage string, order int) (float64, string) {
	total := 0.0
	reason := "first_audio"
	if wantLanguage != "" && language.Matches(language.FromTags(stream.Tags), wantLanguage) {
		total += 1000
		reason = "language_match"
	}
	if isSecondary(title(stream.Tags)) {
		total -= 500
	} else {
		total += 100
	}
	if stream.Disposition != nil && stream.Disposition["default"] == 1 {
		total += 10
		if reason == "first_audio" {
			reason = "default_flag"
		}
	}
	total -= float64(order) * 0.1
	return total, reason
}

func isSecondary(title string) bool {
	for _, keyword := range []string{"commentary", "director", "description", "descriptive", "narrat"} {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

func title(tags map[string]string) string {
	for _, key := range []string{"title", "TITLE", "handler_name", "HANDLER_NAME"} {
		if value, ok := tags[key]; ok {
			return strings.ToLower(strings.TrimSpace(value))
		}
	}
	return ""
}
