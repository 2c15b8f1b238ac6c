// Package segment plans how a decoded waveform is split into chunks for
// inference.
//
// Plan measures short-window energy, finds silent spans, and greedily cuts
// the waveform so each chunk is between the minimum and maximum duration
// where the audio allows. Adjacent chunks share a small overlap centred on
// each cut; the merge stage removes words heard twice in that region. The
// result is a pure function of the samples and Options.
package segment
