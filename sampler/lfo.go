package sampler

import "math"

// VibratoLFO is the engine-wide, block-rate sine low-frequency oscillator:
// one instance shared by every active voice, advanced once per rendered
// block rather than once per sample, producing a pitch offset in semitones.
//
// Single waveform and block-rate update only; sample-and-hold and
// multi-waveform support are deliberately left out as unneeded here.
type VibratoLFO struct {
	rateHz float64
	phase  float64 // [0, 1)
}

// NewVibratoLFO returns a disabled (zero rate) vibrato LFO.
func NewVibratoLFO() *VibratoLFO {
	return &VibratoLFO{}
}

// Configure sets the oscillation rate in Hz. Depth lives on Params, not
// here, since the LFO itself is depth-agnostic — the caller scales the raw
// sine AdvanceBlock returns by whatever depth applies that block.
func (l *VibratoLFO) Configure(rateHz float64) {
	l.rateHz = rateHz
}

// Active reports whether this LFO currently advances its phase.
func (l *VibratoLFO) Active() bool {
	return l.rateHz != 0
}

// Reset zeros the oscillator phase, used when the engine is reconfigured
// from a clean state (e.g. preset load).
func (l *VibratoLFO) Reset() {
	l.phase = 0
}

// AdvanceBlock advances the oscillator by blockSize samples at sampleRateHz
// and returns the raw, unscaled sine sample in [-1, 1] for the block that
// follows. The render loop reads this value once per block, scales it by
// the current vibrato depth, and holds the result across every sample in
// that block, rather than recomputing a sine per sample.
func (l *VibratoLFO) AdvanceBlock(blockSize int, sampleRateHz float64) float64 {
	if !l.Active() || sampleRateHz <= 0 {
		return 0
	}
	offset := math.Sin(2.0 * math.Pi * l.phase)

	l.phase += l.rateHz * float64(blockSize) / sampleRateHz
	if l.phase >= 1.0 {
		l.phase -= math.Floor(l.phase)
	}
	return offset
}
