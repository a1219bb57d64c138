package sampler

import (
	"math"
	"sync/atomic"
)

// Params holds every scalar control exposed to the control agent and
// consumed by the render agent. Each float64 field is backed by an
// atomic.Uint64 holding the bits of the float (sync/atomic has no native
// float64 register), each boolean by an atomic.Bool, and the one integer
// field by an atomic.Int32 — the standard library's own lock-free scalar
// register, used because nothing else in the stack models a single
// concurrently-shared word any better than sync/atomic does.
//
// Writers call the Set* methods from the control agent; Render only ever
// calls the getters (MasterVolume, PitchOffset, ...), which are pure atomic
// loads and therefore safe to
// call from the realtime path.
type Params struct {
	masterVolume      atomic.Uint64
	pitchOffset       atomic.Uint64
	vibratoDepth      atomic.Uint64
	vibratoRateHz     atomic.Uint64
	glideRate         atomic.Uint64
	cutoffMultiple    atomic.Uint64
	keyTracking       atomic.Uint64
	cutoffEnvStrength atomic.Uint64
	filterEnvVelScale atomic.Uint64
	linearResonance   atomic.Uint64

	isMonophonic      atomic.Bool
	isLegato          atomic.Bool
	isFilterEnabled   atomic.Bool
	loopThruRelease   atomic.Bool
	stoppingAllVoices atomic.Bool

	lastPlayedNoteNumber atomic.Int32
}

const defaultVibratoRateHz = 5.0

// NewParams returns a Params record initialized to the engine's defaults:
// unity volume, no pitch/vibrato offset, no glide, filter disabled at unity
// cutoff multiple, and polyphonic voice allocation.
func NewParams() *Params {
	p := &Params{}
	p.masterVolume.Store(math.Float64bits(1.0))
	p.vibratoRateHz.Store(math.Float64bits(defaultVibratoRateHz))
	p.cutoffMultiple.Store(math.Float64bits(1.0))
	p.lastPlayedNoteNumber.Store(-1)
	return p
}

func loadF64(v *atomic.Uint64) float64     { return math.Float64frombits(v.Load()) }
func storeF64(v *atomic.Uint64, f float64) { v.Store(math.Float64bits(f)) }

func (p *Params) MasterVolume() float64     { return loadF64(&p.masterVolume) }
func (p *Params) SetMasterVolume(v float64) { storeF64(&p.masterVolume, v) }

func (p *Params) PitchOffset() float64     { return loadF64(&p.pitchOffset) }
func (p *Params) SetPitchOffset(v float64) { storeF64(&p.pitchOffset, v) }

func (p *Params) VibratoDepth() float64     { return loadF64(&p.vibratoDepth) }
func (p *Params) SetVibratoDepth(v float64) { storeF64(&p.vibratoDepth, v) }

func (p *Params) VibratoRateHz() float64     { return loadF64(&p.vibratoRateHz) }
func (p *Params) SetVibratoRateHz(v float64) { storeF64(&p.vibratoRateHz, v) }

func (p *Params) GlideRate() float64     { return loadF64(&p.glideRate) }
func (p *Params) SetGlideRate(v float64) { storeF64(&p.glideRate, v) }

func (p *Params) CutoffMultiple() float64     { return loadF64(&p.cutoffMultiple) }
func (p *Params) SetCutoffMultiple(v float64) { storeF64(&p.cutoffMultiple, v) }

func (p *Params) KeyTracking() float64     { return loadF64(&p.keyTracking) }
func (p *Params) SetKeyTracking(v float64) { storeF64(&p.keyTracking, v) }

func (p *Params) CutoffEnvelopeStrength() float64     { return loadF64(&p.cutoffEnvStrength) }
func (p *Params) SetCutoffEnvelopeStrength(v float64) { storeF64(&p.cutoffEnvStrength, v) }

func (p *Params) FilterEnvelopeVelocityScaling() float64 { return loadF64(&p.filterEnvVelScale) }
func (p *Params) SetFilterEnvelopeVelocityScaling(v float64) {
	storeF64(&p.filterEnvVelScale, v)
}

func (p *Params) LinearResonance() float64     { return loadF64(&p.linearResonance) }
func (p *Params) SetLinearResonance(v float64) { storeF64(&p.linearResonance, v) }

func (p *Params) IsMonophonic() bool     { return p.isMonophonic.Load() }
func (p *Params) SetIsMonophonic(v bool) { p.isMonophonic.Store(v) }

func (p *Params) IsLegato() bool     { return p.isLegato.Load() }
func (p *Params) SetIsLegato(v bool) { p.isLegato.Store(v) }

func (p *Params) IsFilterEnabled() bool     { return p.isFilterEnabled.Load() }
func (p *Params) SetIsFilterEnabled(v bool) { p.isFilterEnabled.Store(v) }

func (p *Params) LoopThruRelease() bool     { return p.loopThruRelease.Load() }
func (p *Params) SetLoopThruRelease(v bool) { p.loopThruRelease.Store(v) }

func (p *Params) StoppingAllVoices() bool     { return p.stoppingAllVoices.Load() }
func (p *Params) SetStoppingAllVoices(v bool) { p.stoppingAllVoices.Store(v) }

func (p *Params) LastPlayedNoteNumber() int     { return int(p.lastPlayedNoteNumber.Load()) }
func (p *Params) setLastPlayedNoteNumber(v int) { p.lastPlayedNoteNumber.Store(int32(v)) }

// CutoffMultipleOrDisabled returns CutoffMultiple() when the filter is
// enabled, or -1 when it is disabled — the cutoff_mul term a voice's
// per-block prep step consumes.
func (p *Params) CutoffMultipleOrDisabled() float64 {
	if !p.IsFilterEnabled() {
		return -1
	}
	return p.CutoffMultiple()
}

// AllowRunout reports whether a voice may retire itself when get_samples
// reports the sample ran out. Monophonic-legato mode suppresses this so a
// held note never disappears mid-glide.
func (p *Params) AllowRunout() bool {
	return !(p.IsMonophonic() && p.IsLegato())
}
