// Package dsp holds the small set of DSP primitives that must never
// allocate on the sampler's per-sample hot path. Algorithms that can afford
// to allocate (sample loading, impulse-response convolution) reach for
// github.com/cwbudde/algo-dsp instead; this package exists for the few
// kernels a Voice mutates every block without touching the heap.
package dsp

import "math"

// Biquad implements a second-order IIR filter (no heap allocations in Process).
type Biquad struct {
	// Coefficients
	b0, b1, b2 float32
	a1, a2     float32

	// State (previous samples)
	x1, x2 float32 // input history
	y1, y2 float32 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients.
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	return &Biquad{
		b0: b0,
		b1: b1,
		b2: b2,
		a1: a1,
		a2: a2,
	}
}

// Process processes one sample through the biquad filter.
func (b *Biquad) Process(input float32) float32 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	// Denormals build up in the feedback history during long quiet tails.
	b.y1 = FlushDenormals(b.y1)
	b.y2 = FlushDenormals(b.y2)

	return output
}

// Reset clears the filter state.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// SetLowpass recomputes this Biquad's coefficients in place as an RBJ lowpass
// with the given cutoff (Hz), sample rate (Hz) and resonance Q. Filter state
// (x1,x2,y1,y2) is left untouched so the cutoff can be swept every block
// without a click or a reallocation.
func (b *Biquad) SetLowpass(cutoff, sampleRate, q float32) {
	if cutoff < 1.0 {
		cutoff = 1.0
	}
	nyquist := sampleRate * 0.4999
	if cutoff > nyquist {
		cutoff = nyquist
	}
	if q < 0.1 {
		q = 0.1
	}

	w0 := 2.0 * math.Pi * float64(cutoff) / float64(sampleRate)
	alpha := math.Sin(w0) / (2.0 * float64(q))
	cosw0 := math.Cos(w0)

	b0 := (1.0 - cosw0) / 2.0
	b1 := 1.0 - cosw0
	b2 := (1.0 - cosw0) / 2.0
	a0 := 1.0 + alpha
	a1 := -2.0 * cosw0
	a2 := 1.0 - alpha

	b.b0 = float32(b0 / a0)
	b.b1 = float32(b1 / a0)
	b.b2 = float32(b2 / a0)
	b.a1 = float32(a1 / a0)
	b.a2 = float32(a2 / a0)
}

// NewLowpass creates a new biquad filter already configured as an RBJ
// lowpass with the given cutoff (Hz), sample rate (Hz) and resonance Q.
func NewLowpass(cutoff, sampleRate, q float32) *Biquad {
	b := &Biquad{}
	b.SetLowpass(cutoff, sampleRate, q)
	return b
}

// LinearResonanceToQ maps a [0,1] "linear resonance" control, as exposed by
// most sample-playback engines, onto the Q range a one-stage RBJ lowpass
// stays stable across (roughly 0.5, no peaking, through ~12, near self-osc).
func LinearResonanceToQ(linearResonance float32) float32 {
	if linearResonance < 0 {
		linearResonance = 0
	}
	if linearResonance > 1 {
		linearResonance = 1
	}
	const minQ = 0.5
	const maxQ = 12.0
	return minQ + linearResonance*(maxQ-minQ)
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues.
func FlushDenormals(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}
