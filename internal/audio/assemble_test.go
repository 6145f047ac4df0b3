package audio

import "testing"

func TestSilenceSamples(t *testing.T) {
	cases := []struct {
		rate, gapMS, want int
	}{
		{22050, 120, 2646},
		{22050, 0, 0},
		{16000, 100, 1600},
		{44100, 33, 1455},
	}
	for _, tc := range cases {
		if got := SilenceSamples(tc.rate, tc.gapMS); got != tc.want {
			t.Errorf("SilenceSamples(%d, %d) = %d, want %d", tc.rate, tc.gapMS, got, tc.want)
		}
	}
}

func TestAssembleSingleChunkPassthrough(t *testing.T) {
	seg := []float32{0.1, 0.2, 0.3}
	out := Assemble([][]float32{seg}, 22050, 120)
	if len(out) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(out))
	}
	for i := range seg {
		if out[i] != seg[i] {
			t.Fatalf("sample %d changed: %f != %f", i, out[i], seg[i])
		}
	}
}

func TestAssembleInsertsGapsBetweenChunksOnly(t *testing.T) {
	rate := 22050
	gapMS := 120
	segments := [][]float32{
		make([]float32, 1000),
		make([]float32, 2500),
		make([]float32, 300),
	}
	out := Assemble(segments, rate, gapMS)

	gap := SilenceSamples(rate, gapMS)
	want := 1000 + 2500 + 300 + 2*gap
	if len(out) != want {
		t.Fatalf("expected %d samples, got %d", want, len(out))
	}
}

func TestAssembleZeroGap(t *testing.T) {
	segments := [][]float32{
		{0.5, 0.5},
		{-0.5, -0.5},
	}
	out := Assemble(segments, 22050, 0)
	if len(out) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(out))
	}
	if out[1] != 0.5 || out[2] != -0.5 {
		t.Fatal("chunks not adjacent with zero gap")
	}
}

func TestAssembleOrderPreserved(t *testing.T) {
	segments := [][]float32{{1}, {2}, {3}}
	out := Assemble(segments, 1000, 0)
	for i, want := range []float32{1, 2, 3} {
		if out[i] != want {
			t.Fatalf("sample %d = %f, want %f", i, out[i], want)
		}
	}
}

func TestAssembleEmpty(t *testing.T) {
	if out := Assemble(nil, 22050, 120); out != nil {
		t.Fatalf("expected nil for no segments, got %d samples", len(out))
	}
}
