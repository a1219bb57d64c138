package sampler

import "math"

// EnvelopeStage identifies which segment of an ADSR contour a generator is
// currently producing.
type EnvelopeStage int

const (
	EnvelopeIdle EnvelopeStage = iota
	EnvelopeAttack
	EnvelopeDecay
	EnvelopeSustain
	EnvelopeRelease
)

// EnvelopeParameters holds the shared ADSR shape a Voice's amplitude and
// filter envelopes are both configured from: attack/decay/release in
// seconds, sustain as a [0,1] level.
type EnvelopeParameters struct {
	AttackSeconds  float64
	DecaySeconds   float64
	SustainLevel   float64
	ReleaseSeconds float64
}

// DefaultEnvelopeParameters returns a short, click-free default contour.
func DefaultEnvelopeParameters() EnvelopeParameters {
	return EnvelopeParameters{
		AttackSeconds:  0.005,
		DecaySeconds:   0.1,
		SustainLevel:   1.0,
		ReleaseSeconds: 0.05,
	}
}

// envelopeGenerator is a per-voice exponential ADSR generator. Its Next
// method allocates nothing and is called once per rendered sample, stepping
// each stage toward its target along a fixed per-sample coefficient with an
// explicit sustain plateau between decay and release.
type envelopeGenerator struct {
	sampleRate float64

	attackCoef  float64
	decayCoef   float64
	sustain     float64
	releaseCoef float64

	stage  EnvelopeStage
	value  float64
	target float64
}

func newEnvelopeGenerator(sampleRate float64) *envelopeGenerator {
	return &envelopeGenerator{sampleRate: sampleRate}
}

// Configure applies an EnvelopeParameters shape, recomputing the internal
// exponential coefficients. It does not reset the generator's current stage
// or value, so a cutoff/resonance-style "set while sounding" update does not
// click.
func (e *envelopeGenerator) Configure(p EnvelopeParameters) {
	e.attackCoef = envelopeCoef(p.AttackSeconds, e.sampleRate)
	e.decayCoef = envelopeCoef(p.DecaySeconds, e.sampleRate)
	e.releaseCoef = envelopeCoef(p.ReleaseSeconds, e.sampleRate)
	e.sustain = clamp01(p.SustainLevel)
}

func envelopeCoef(seconds, sampleRate float64) float64 {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (seconds * sampleRate))
}

// Trigger starts (or restarts) the attack stage from the generator's
// current value, so a fast re-strike on an already-sounding voice ramps
// rather than jumps.
func (e *envelopeGenerator) Trigger() {
	e.stage = EnvelopeAttack
	e.target = 1.0
}

// ReleaseNote begins the release stage, decaying toward zero from wherever
// the generator currently sits.
func (e *envelopeGenerator) ReleaseNote() {
	if e.stage == EnvelopeIdle {
		return
	}
	e.stage = EnvelopeRelease
	e.target = 0.0
}

// Reset forces the generator back to silence, used when a voice is stolen
// or returned to the free pool.
func (e *envelopeGenerator) Reset() {
	e.stage = EnvelopeIdle
	e.value = 0
	e.target = 0
}

// Active reports whether the generator is still producing nonzero output.
func (e *envelopeGenerator) Active() bool {
	return e.stage != EnvelopeIdle
}

// Value returns the envelope's current level without advancing it — used
// when a caller needs this sample's level for a once-per-block coefficient
// calculation ahead of the per-sample loop that will actually advance it.
func (e *envelopeGenerator) Value() float64 {
	return e.value
}

// Next advances the envelope by one sample and returns its current level.
func (e *envelopeGenerator) Next() float64 {
	switch e.stage {
	case EnvelopeAttack:
		e.value = e.target + (e.value-e.target)*e.attackCoef
		if e.value >= 0.9995 {
			e.value = 1.0
			e.stage = EnvelopeDecay
			e.target = e.sustain
		}
	case EnvelopeDecay:
		e.value = e.target + (e.value-e.target)*e.decayCoef
		if e.value <= e.sustain+0.0005 {
			e.value = e.sustain
			e.stage = EnvelopeSustain
		}
	case EnvelopeSustain:
		e.value = e.sustain
	case EnvelopeRelease:
		e.value = e.target + (e.value-e.target)*e.releaseCoef
		if e.value <= 0.0005 {
			e.value = 0
			e.stage = EnvelopeIdle
		}
	case EnvelopeIdle:
		e.value = 0
	}
	return e.value
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
