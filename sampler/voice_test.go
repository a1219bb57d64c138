package sampler

import (
	"math"
	"testing"
)

const testSampleRate = 48000.0

func newTestBuffer(t *testing.T, n int, rootFreq float64, looping bool, loopStart, loopEnd float64) *SampleBuffer {
	t.Helper()
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(math.Sin(2.0 * math.Pi * float64(i) / 32.0))
	}
	bk := NewSampleBank()
	desc := SampleDescriptor{
		Data:            data,
		ChannelCount:    1,
		SampleCount:     n,
		SampleRateHz:    testSampleRate,
		RootNoteNumber:  60,
		RootFrequencyHz: rootFreq,
		MinKey:          0,
		MaxKey:          127,
		MinVelocity:     -1,
		MaxVelocity:     -1,
		IsLooping:       looping,
		LoopStartPoint:  loopStart,
		LoopEndPoint:    loopEnd,
	}
	buf, err := bk.Load(desc)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	return buf
}

func fastEnvelope() EnvelopeParameters {
	return EnvelopeParameters{
		AttackSeconds:  0.001,
		DecaySeconds:   0.01,
		SustainLevel:   1.0,
		ReleaseSeconds: 0.01,
	}
}

func TestVoiceStartProducesFiniteNonSilentOutput(t *testing.T) {
	amp := fastEnvelope()
	filter := fastEnvelope()
	v := NewVoice(testSampleRate, &amp, &filter)
	buf := newTestBuffer(t, 4096, 261.63, false, 0, 0)

	v.Start(60, testSampleRate, 261.63, 1.0, buf)
	if v.PrepToGetSamples(256, 1.0, 0, -1, 0, 0, 0, 0) {
		t.Fatalf("a freshly started voice must not report already-ended")
	}

	left := make([]float32, 256)
	right := make([]float32, 256)
	// advance past the attack so the block isn't dominated by near-zero ramp.
	for i := 0; i < 10; i++ {
		v.GetSamples(256, left, right)
	}

	var energy float64
	for i := range left {
		if !isFinite(left[i]) || !isFinite(right[i]) {
			t.Fatalf("voice produced a non-finite sample at index %d", i)
		}
		energy += float64(left[i]) * float64(left[i])
	}
	if energy == 0 {
		t.Fatalf("expected nonzero output once past the attack ramp")
	}
}

func TestVoiceRanOutDoesNotForceIdle(t *testing.T) {
	amp := fastEnvelope()
	filter := fastEnvelope()
	v := NewVoice(testSampleRate, &amp, &filter)
	buf := newTestBuffer(t, 64, 261.63, false, 0, 0)

	v.Start(60, testSampleRate, 261.63, 1.0, buf)
	v.PrepToGetSamples(256, 1.0, 0, -1, 0, 0, 0, 0)

	left := make([]float32, 256)
	right := make([]float32, 256)
	ranOut := v.GetSamples(256, left, right)
	if !ranOut {
		t.Fatalf("expected a 64-frame buffer to run out within a 256-frame block")
	}
	if !v.Active() {
		t.Fatalf("GetSamples must never force the voice idle on its own; retirement is the engine's call")
	}
}

func TestVoiceLoopWrapsPreservingOvershoot(t *testing.T) {
	amp := fastEnvelope()
	filter := fastEnvelope()
	v := NewVoice(testSampleRate, &amp, &filter)
	buf := newTestBuffer(t, 1000, 261.63, true, 100, 900)

	// playback_rate == noteFreq/rootFreq here, so asking for 50x the root
	// frequency forces the read head through many loop wraps per block.
	v.Start(60, testSampleRate, buf.RootFrequencyHz*50, 1.0, buf)
	v.PrepToGetSamples(512, 1.0, 0, -1, 0, 0, 0, 0)

	left := make([]float32, 512)
	right := make([]float32, 512)
	for i := 0; i < 20; i++ {
		ranOut := v.GetSamples(512, left, right)
		if ranOut {
			t.Fatalf("a looping voice must never report ran-out while looping is engaged")
		}
	}

	if v.samplePos < buf.LoopStartPoint || v.samplePos >= buf.LoopEndPoint {
		t.Fatalf("expected the read head to stay within the loop region, got %v", v.samplePos)
	}
	if !v.Active() {
		t.Fatalf("a looping voice must still be active after many wraps")
	}
}

func TestVoiceStopResetsFully(t *testing.T) {
	amp := fastEnvelope()
	filter := fastEnvelope()
	v := NewVoice(testSampleRate, &amp, &filter)
	buf := newTestBuffer(t, 4096, 261.63, false, 0, 0)

	v.Start(60, testSampleRate, 261.63, 1.0, buf)
	v.Stop()

	if v.Active() {
		t.Fatalf("expected Stop to return the voice to idle")
	}
	if v.NoteNumber() != -1 {
		t.Fatalf("expected NoteNumber() == -1 after Stop, got %d", v.NoteNumber())
	}
}

func TestVoiceLegatoGlideRampsTowardTarget(t *testing.T) {
	amp := fastEnvelope()
	filter := fastEnvelope()
	v := NewVoice(testSampleRate, &amp, &filter)
	buf := newTestBuffer(t, 48000, 261.63, false, 0, 0)

	v.Start(60, testSampleRate, 261.63, 1.0, buf)
	v.RestartNewNoteLegato(72, testSampleRate, 523.25, 1.0) // one octave up, 1 sec/octave

	// A single small block shouldn't complete the glide yet.
	v.PrepToGetSamples(48, 1.0, 0, -1, 0, 0, 0, 0)
	midRate := v.playbackRate
	if !v.glideActive {
		t.Fatalf("expected the glide to still be in flight after a short block")
	}

	// Run enough blocks to finish a 1-second glide at 48kHz.
	for i := 0; i < 2000; i++ {
		v.PrepToGetSamples(48, 1.0, 0, -1, 0, 0, 0, 0)
	}
	if v.glideActive {
		t.Fatalf("expected the glide to complete after more than one full glide duration")
	}
	finalRate := v.playbackRate
	if finalRate <= midRate {
		t.Fatalf("expected playback rate to have increased toward the higher target, mid=%v final=%v", midRate, finalRate)
	}
}
