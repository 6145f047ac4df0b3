package audio

// SilenceSamples returns the number of zero samples that make up a gap of
// the given duration at the given rate.
func SilenceSamples(sampleRate, gapMS int) int {
	return (gapMS*sampleRate + 500) / 1000
}

// Assemble concatenates per-chunk sample buffers in order, inserting a
// silence gap between adjacent chunks. No gap is placed before the first
// or after the last chunk. All segments must share sampleRate; the caller
// validates that before assembly.
func Assemble(segments [][]float32, sampleRate, silenceGapMS int) []float32 {
	if len(segments) == 0 {
		return nil
	}
	if len(segments) == 1 {
		return segments[0]
	}

	gap := SilenceSamples(sampleRate, silenceGapMS)
	total := gap * (len(segments) - 1)
	for _, seg := range segments {
		total += len(seg)
	}

	out := make([]float32, 0, total)
	for i, seg := range segments {
		if i > 0 && gap > 0 {
			out = append(out, make([]float32, gap)...)
		}
		out = append(out, seg...)
	}
	return out
}
