package sampler

import "github.com/cwbudde/algo-approx"

// MIDINotes is the fixed size of every per-key table in the engine.
const MIDINotes = 128

// defaultA4Hz and defaultA4Note define the 12-TET reference pitch.
const (
	defaultA4Hz   = 440.0
	defaultA4Note = 69
)

// TuningTable holds a 128-entry frequency table, one Hz value per MIDI key.
// It defaults to 12-TET with A4 = 440 Hz and can be overridden per key.
type TuningTable struct {
	freq [MIDINotes]float64
}

// NewTuningTable creates a TuningTable initialized to default 12-TET tuning.
func NewTuningTable() *TuningTable {
	t := &TuningTable{}
	t.ResetToDefault()
	return t
}

// ResetToDefault restores every key to 12-TET A4=440Hz.
func (t *TuningTable) ResetToDefault() {
	for k := 0; k < MIDINotes; k++ {
		t.freq[k] = twelveTETHz(k)
	}
}

// Frequency returns the tuned frequency in Hz for a MIDI key in [0,127].
// Keys outside that range return 0.
func (t *TuningTable) Frequency(key int) float64 {
	if key < 0 || key >= MIDINotes {
		return 0
	}
	return t.freq[key]
}

// SetFrequency overrides a single key's frequency. Keys outside [0,127] are
// ignored.
func (t *TuningTable) SetFrequency(key int, hz float64) {
	if key < 0 || key >= MIDINotes || hz <= 0 {
		return
	}
	t.freq[key] = hz
}

// twelveTETHz computes the default 12-TET frequency of a MIDI note using a
// fast-exponential approximation of 2^x.
func twelveTETHz(note int) float64 {
	exponent := float64(note-defaultA4Note) / 12.0
	return defaultA4Hz * pow2Approx(exponent)
}

// pow2Approx computes 2^x via e^(x*ln2), using a fast-exp approximation for
// pitch math.
func pow2Approx(x float64) float64 {
	const ln2 = 0.69314718055994530942
	return float64(approx.FastExp(float32(x * ln2)))
}
