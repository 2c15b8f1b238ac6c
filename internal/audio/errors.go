package audio

import (
	"strings"

	"murmur/internal/services"
)

// Decode failure reasons.
const (
	ReasonMissingFile      = "missing_file"
	ReasonNoAudioStream    = "no_audio_stream"
	ReasonUnsupportedCodec = "unsupported_codec"
	ReasonCorruptStream    = "corrupt_stream"
	ReasonZeroLength       = "zero_length"
	ReasonToolUnavailable  = "decoder_unavailable"
	ReasonDecoderFailed    = "decoder_failed"
)

// DecodeError reports why an input could not be turned into a Waveform. It
// matches services.ErrDecode under errors.Is.
type DecodeError struct {
	Path   string
	Reason string
	Hint   string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode " + e.Path + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrDecode}
	}
	return []error{services.ErrDecode, e.Err}
}

type failure struct {
	reason string
	hint   string
}

// classifyFailure maps decoder stderr and error text to a reason and a hint.
func classifyFailure(message string) failure {
	message = strings.ToLower(message)
	switch {
	case strings.Contains(message, "no such file"):
		return failure{ReasonMissingFile, "check the input path"}
	case strings.Contains(message, "stream specifier") || strings.Contains(message, "matches no streams") ||
		strings.Contains(message, "does not contain any stream") || strings.Contains(message, "output file #0 does not contain"):
		return failure{ReasonNoAudioStream, "input has no audio stream to transcribe"}
	case strings.Contains(message, "decoder") && strings.Contains(message, "not found"),
		strings.Contains(message, "unknown codec"), strings.Contains(message, "unsupported codec"),
		strings.Contains(message, "unsupported"):
		return failure{ReasonUnsupportedCodec, "convert the input with a full ffmpeg build or another tool"}
	case strings.Contains(message, "invalid data found when processing input"),
		strings.Contains(message, "error while decoding"),
		strings.Contains(message, "could not find codec parameters"),
		strings.Contains(message, "moov atom not found"),
		strings.Contains(message, "missing riff"),
		strings.Contains(message, "unexpected eof"):
		return failure{ReasonCorruptStream, "the file is truncated or damaged; try re-downloading or remuxing it"}
	default:
		return failure{ReasonDecoderFailed, "run ffmpeg manually on the input to see the full error"}
	}
}

func newDecodeError(path string, f failure, err error) *DecodeError {
	return &DecodeError{Path: path, Reason: f.reason, Hint: f.hint, Err: err}
}
