// Package audio is the media decoder: it turns an input file into a mono,
// fixed-rate Waveform.
//
// Two backends exist. FFmpegDecoder runs one ffmpeg subprocess per file and
// streams s16le PCM from its stdout; WAVDecoder reads RIFF/WAVE directly with
// github.com/gopxl/beep and resamples deterministically. New picks between
// them. Every failure is a *DecodeError carrying a reason such as
// zero_length or unsupported_codec.
//
// The package also writes waveforms back out as WAV for inference backends
// that consume files and for the --audio-out option.
package audio
