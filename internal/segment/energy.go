package segment

import "math"

// silenceFloorDB is reported for frames of digital silence.
const silenceFloorDB = -120.0

// frameEnergies returns the mean-square energy of each frameLen window in
// dBFS. The last frame may be shorter.
func frameEnergies(samples []float32, frameLen int) []float64 {
	if frameLen <= 0 || len(samples) == 0 {
		return nil
	}
	n := (len(samples) + frameLen - 1) / frameLen
	out := make([]float64, n)
	for i := range out {
		start := i * frameLen
		end := min(start+frameLen, len(samples))
		var sum float64
		for _, s := range samples[start:end] {
			v := float64(s)
			sum += v * v
		}
		out[i] = toDB(sum / float64(end-start))
	}
	return out
}

func toDB(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return silenceFloorDB
	}
	return math.Max(10*math.Log10(meanSquare), silenceFloorDB)
}

// candidate is a cut point inside a quiet span.
type candidate struct {
	cut    int
	energy float64
}

// findCandidates returns one cut per quiet span, ordered by position. A span
// is a run of frames below threshold covering at least minSilence samples.
// The cut sits at the centre of the span's quietest frame; ties go to the
// frame nearest the span centre.
func findCandidates(energies []float64, frameLen, total int, threshold float64, minSilence int) []candidate {
	var out []candidate
	for i := 0; i < len(energies); {
		if energies[i] >= threshold {
			i++
			continue
		}
		j := i
		for j < len(energies) && energies[j] < threshold {
			j++
		}
		spanStart := i * frameLen
		spanEnd := min(j*frameLen, total)
		if spanEnd-spanStart >= minSilence {
			best := quietestFrame(energies, i, j, (spanStart+spanEnd)/2, frameLen)
			cut := min(best*frameLen+frameLen/2, total)
			out = append(out, candidate{cut: cut, energy: energies[best]})
		}
		i = j
	}
	return out
}

// quietestFrame picks the lowest-energy frame in [from, to), preferring the
// frame whose centre is closest to centre.
func quietestFrame(energies []float64, from, to, centre, frameLen int) int {
	best := from
	for f := from + 1; f < to; f++ {
		switch {
		case energies[f] < energies[best]:
			best = f
		case energies[f] == energies[best] &&
			distance(f*frameLen+frameLen/2, centre) < distance(best*frameLen+frameLen/2, centre):
			best = f
		}
	}
	return best
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
