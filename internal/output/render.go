package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"murmur/internal/fileutil"
	"murmur/internal/services"
	"murmur/internal/textutil"
	"murmur/internal/transcript"
)

// Render produces the bytes of transcript t in format f. An empty transcript
// renders a valid empty artifact.
func Render(t transcript.Transcript, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return renderText(t), nil
	case FormatSubtitle:
		return renderCues(t, '.', ""), nil
	case FormatSRT:
		return renderCues(t, ',', ""), nil
	case FormatVTT:
		return renderCues(t, '.', "WEBVTT\n\n"), nil
	case FormatJSON:
		return renderJSON(t)
	default:
		return nil, services.Wrap(services.ErrFormat, services.StageFormat, "render",
			fmt.Sprintf("unknown output format %q", string(f)), nil)
	}
}

// Write renders t and writes it atomically to path.
func Write(path string, t transcript.Transcript, f Format) error {
	data, err := Render(t, f)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrFormat, services.StageFormat, "write", path, err)
	}
	return nil
}

func renderText(t transcript.Transcript) []byte {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := textutil.CollapseSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(parts, " ") + "\n")
}

// renderCues writes numbered cues with the given millisecond separator.
func renderCues(t transcript.Transcript, sep byte, header string) []byte {
	var buf bytes.Buffer
	buf.WriteString(header)
	index := 0
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		index++
		fmt.Fprintf(&buf, "%d\n%s --> %s\n%s\n\n", index, Timestamp(seg.Start, sep), Timestamp(seg.End, sep), text)
	}
	return buf.Bytes()
}

type jsonDocument struct {
	Duration float64              `json:"duration"`
	Segments []transcript.Segment `json:"segments"`
	Gaps     []transcript.Gap     `json:"gaps"`
}

func renderJSON(t transcript.Transcript) ([]byte, error) {
	doc := jsonDocument{Duration: t.Duration, Segments: t.Segments, Gaps: t.Gaps}
	if doc.Segments == nil {
		doc.Segments = []transcript.Segment{}
	}
	if doc.Gaps == nil {
		doc.Gaps = []transcript.Gap{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrFormat, services.StageFormat, "render", "encode json", err)
	}
	return append(data, '\n'), nil
}

// Timestamp formats seconds as HH:MM:SS<sep>mmm, rounding to the nearest
// millisecond. Negative values clamp to zero.
func Timestamp(seconds float64, sep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	hours := ms / 3_600_000
	ms %= 3_600_000
	minutes := ms / 60_000
	ms %= 60_000
	secs := ms / 1_000
	millis := ms % 1_000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}
