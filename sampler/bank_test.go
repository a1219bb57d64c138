package sampler

import (
	"errors"
	"testing"
)

func monoDescriptor(n int) SampleDescriptor {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	return SampleDescriptor{
		Data:            data,
		ChannelCount:    1,
		SampleCount:     n,
		SampleRateHz:    48000,
		RootNoteNumber:  60,
		RootFrequencyHz: 261.63,
		MinKey:          0,
		MaxKey:          127,
		MinVelocity:     -1,
		MaxVelocity:     -1,
	}
}

func TestLoadRejectsNonPositiveSampleCount(t *testing.T) {
	bk := NewSampleBank()
	desc := monoDescriptor(1)
	desc.SampleCount = 0
	if _, err := bk.Load(desc); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("expected ErrInvalidSample, got %v", err)
	}
	if bk.Len() != 0 {
		t.Fatalf("bank must remain empty after rejected load")
	}
}

func TestLoadRejectsBadChannelCount(t *testing.T) {
	bk := NewSampleBank()
	desc := monoDescriptor(4)
	desc.ChannelCount = 3
	if _, err := bk.Load(desc); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("expected ErrInvalidSample, got %v", err)
	}
}

func TestLoadRejectsStartEndOutOfRange(t *testing.T) {
	bk := NewSampleBank()
	desc := monoDescriptor(10)
	desc.StartPoint = 5
	desc.EndPoint = 5
	if _, err := bk.Load(desc); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("expected ErrInvalidSample for start==end, got %v", err)
	}
}

func TestLoadResolvesFractionalLoopPoints(t *testing.T) {
	bk := NewSampleBank()
	desc := monoDescriptor(1000)
	desc.IsLooping = true
	desc.LoopStartPoint = 0.25 // fraction of end_point (1000)
	desc.LoopEndPoint = 0.75

	buf, err := bk.Load(desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.LoopStartPoint != 250 || buf.LoopEndPoint != 750 {
		t.Fatalf("expected resolved loop points 250/750, got %v/%v", buf.LoopStartPoint, buf.LoopEndPoint)
	}
}

func TestLoadTreatsLoopPointsAboveOneAsAbsolute(t *testing.T) {
	bk := NewSampleBank()
	desc := monoDescriptor(1000)
	desc.IsLooping = true
	desc.LoopStartPoint = 100
	desc.LoopEndPoint = 900

	buf, err := bk.Load(desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.LoopStartPoint != 100 || buf.LoopEndPoint != 900 {
		t.Fatalf("expected absolute loop points 100/900, got %v/%v", buf.LoopStartPoint, buf.LoopEndPoint)
	}
}

func TestLoadRejectsInvalidLoopOrdering(t *testing.T) {
	bk := NewSampleBank()
	desc := monoDescriptor(1000)
	desc.IsLooping = true
	desc.LoopStartPoint = 900
	desc.LoopEndPoint = 100 // absolute, but end before start
	if _, err := bk.Load(desc); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("expected ErrInvalidSample, got %v", err)
	}
}

func TestLoadDeinterleavesStereoIntoPlanarForm(t *testing.T) {
	bk := NewSampleBank()
	desc := monoDescriptor(0)
	desc.ChannelCount = 2
	desc.SampleCount = 3
	desc.IsInterleaved = true
	desc.Data = []float32{1, 10, 2, 20, 3, 30} // L0 R0 L1 R1 L2 R2

	buf, err := bk.Load(desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantLeft := []float32{1, 2, 3}
	wantRight := []float32{10, 20, 30}
	for i := 0; i < 3; i++ {
		if buf.channelAt(0, i) != wantLeft[i] {
			t.Fatalf("left[%d] = %v, want %v", i, buf.channelAt(0, i), wantLeft[i])
		}
		if buf.channelAt(1, i) != wantRight[i] {
			t.Fatalf("right[%d] = %v, want %v", i, buf.channelAt(1, i), wantRight[i])
		}
	}
}

func TestSuccessfulLoadAppendsInInsertionOrder(t *testing.T) {
	bk := NewSampleBank()
	a, err := bk.Load(monoDescriptor(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := bk.Load(monoDescriptor(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bk.Len() != 2 || bk.At(0) != a || bk.At(1) != b {
		t.Fatalf("expected insertion-order bank contents")
	}
}
