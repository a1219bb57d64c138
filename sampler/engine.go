package sampler

import "sync"

// MaxPolyphony is the fixed size of the voice pool, created once at engine
// init and never resized.
const MaxPolyphony = 64

// monophonicReleaseVelocity is the fixed velocity used to re-look-up a
// sample when a monophonic voice falls back to an already-held key on
// release, rather than remembering that key's original press velocity.
const monophonicReleaseVelocity = 100

// Sampler is the top-level engine: sample bank, key map, tuning, pedal
// logic, scalar params, and the fixed voice pool, tied together behind a
// single control/render API.
//
// The voice pool is guarded by a sync.RWMutex, the same register-guard
// pattern used to protect shared chip state between an audio callback and
// its control path: Render takes a brief write lock around the pool sweep
// (it mutates voice state), and control-path reads that only inspect voices
// (tests, status queries) can use a read lock.
type Sampler struct {
	sampleRateHz float64

	bank    *SampleBank
	keyMap  *KeyMap
	keyMode KeyMapMode
	tuning  *TuningTable
	pedal   *SustainPedalLogic
	params  *Params
	vibrato *VibratoLFO

	ampParams    EnvelopeParameters
	filterParams EnvelopeParameters

	voices [MaxPolyphony]*Voice

	mutex sync.RWMutex
}

// NewSampler creates a fully-initialized, empty engine: an empty bank, an
// invalid key map, default 12-TET tuning, default ADSR shapes, and
// MaxPolyphony idle voices.
func NewSampler(sampleRateHz float64) *Sampler {
	s := &Sampler{
		sampleRateHz: sampleRateHz,
		bank:         NewSampleBank(),
		keyMap:       NewKeyMap(),
		tuning:       NewTuningTable(),
		pedal:        NewSustainPedalLogic(),
		params:       NewParams(),
		vibrato:      NewVibratoLFO(),
		ampParams:    DefaultEnvelopeParameters(),
		filterParams: DefaultEnvelopeParameters(),
	}
	for i := range s.voices {
		s.voices[i] = NewVoice(sampleRateHz, &s.ampParams, &s.filterParams)
	}
	return s
}

// Params exposes the atomic scalar parameter block for direct get/set use.
func (s *Sampler) Params() *Params {
	return s.params
}

// Bank exposes the sample bank for loading. Bank mutation must happen while
// the engine is quiesced — see StopAllVoices/RestartVoices.
func (s *Sampler) Bank() *SampleBank {
	return s.bank
}

// Tuning exposes the per-key frequency table.
func (s *Sampler) Tuning() *TuningTable {
	return s.tuning
}

// SetAmpEnvelope updates the shared amplitude ADSR shape and notifies every
// voice to recompute its local coefficients.
func (s *Sampler) SetAmpEnvelope(p EnvelopeParameters) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.ampParams = p
	for _, v := range s.voices {
		v.UpdateAmpADSRParameters()
	}
}

// SetFilterEnvelope is the filter-envelope counterpart of SetAmpEnvelope.
func (s *Sampler) SetFilterEnvelope(p EnvelopeParameters) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.filterParams = p
	for _, v := range s.voices {
		v.UpdateFilterADSRParameters()
	}
}

// BuildKeyMap rebuilds the key map against the current bank contents using
// the given mode. The caller is expected to have quiesced the engine first
// (StopAllVoices) if samples are being loaded concurrently with rendering.
func (s *Sampler) BuildKeyMap(mode KeyMapMode) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.keyMode = mode
	s.keyMap.Build(s.bank, s.tuning, mode)
}

// LoadSample validates and appends a sample descriptor to the bank,
// invalidating the key map. It does not rebuild the map; call BuildKeyMap
// afterward.
func (s *Sampler) LoadSample(desc SampleDescriptor) (*SampleBuffer, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	buf, err := s.bank.Load(desc)
	if err != nil {
		return nil, err
	}
	s.keyMap.Invalidate()
	return buf, nil
}

// SetNoteFrequency overrides a single key's tuning table entry.
func (s *Sampler) SetNoteFrequency(key int, hz float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tuning.SetFrequency(key, hz)
}

// PlayNote is the control-agent entry point for a note-on event.
func (s *Sampler) PlayNote(key, velocity int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	otherWasDown := s.pedal.IsAnyKeyDown()
	s.pedal.KeyDown(key)
	s.play(key, velocity, otherWasDown)
}

func (s *Sampler) play(key, velocity int, otherWasDown bool) {
	if s.params.StoppingAllVoices() {
		return
	}
	if !s.keyMap.Valid() || s.bank.Len() == 0 {
		return
	}

	freq := s.tuning.Frequency(key)
	velocityNorm := float64(velocity) / 127.0

	monophonic := s.params.IsMonophonic()
	legato := s.params.IsLegato()

	if monophonic && legato && otherWasDown {
		voice := s.voices[0]
		if voice.Active() {
			voice.RestartNewNoteLegato(key, s.sampleRateHz, freq, s.params.GlideRate())
		} else if buf, err := s.keyMap.Lookup(key, velocity); err == nil {
			voice.Start(key, s.sampleRateHz, freq, velocityNorm, buf)
		} else {
			return
		}
		s.params.setLastPlayedNoteNumber(key)
		return
	}

	if monophonic {
		voice := s.voices[0]
		buf, err := s.keyMap.Lookup(key, velocity)
		if err != nil {
			return
		}
		if voice.Active() {
			voice.RestartNewNote(key, s.sampleRateHz, freq, velocityNorm, buf)
		} else {
			voice.Start(key, s.sampleRateHz, freq, velocityNorm, buf)
		}
		s.params.setLastPlayedNoteNumber(key)
		return
	}

	// Polyphonic: a voice already sounding this key is retriggered in place.
	for _, voice := range s.voices {
		if voice.Active() && voice.NoteNumber() == key {
			if buf, err := s.keyMap.Lookup(key, velocity); err == nil {
				voice.RestartSameNote(velocityNorm, buf)
				s.params.setLastPlayedNoteNumber(key)
			}
			return
		}
	}
	for _, voice := range s.voices {
		if !voice.Active() {
			buf, err := s.keyMap.Lookup(key, velocity)
			if err != nil {
				return
			}
			voice.Start(key, s.sampleRateHz, freq, velocityNorm, buf)
			s.params.setLastPlayedNoteNumber(key)
			return
		}
	}
	// Pool exhausted: drop silently, last-played bookkeeping unchanged.
}

// StopNote is the control-agent entry point for a note-off event.
func (s *Sampler) StopNote(key int, immediate bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stopNote(key, immediate)
}

func (s *Sampler) stopNote(key int, immediate bool) {
	if immediate || s.pedal.KeyUp(key) {
		s.stop(key, immediate)
	}
}

func (s *Sampler) stop(key int, immediate bool) {
	var voice *Voice
	for _, v := range s.voices {
		if v.Active() && v.NoteNumber() == key {
			voice = v
			break
		}
	}
	if voice == nil {
		return
	}

	if immediate {
		voice.Stop()
		return
	}

	if s.params.IsMonophonic() {
		heldKey := s.pedal.FirstKeyDown()
		switch {
		case heldKey < 0:
			voice.Release(s.params.LoopThruRelease())
		case s.params.IsLegato():
			voice.RestartNewNoteLegato(heldKey, s.sampleRateHz, s.tuning.Frequency(heldKey), s.params.GlideRate())
		default:
			buf, err := s.keyMap.Lookup(heldKey, monophonicReleaseVelocity)
			if err == nil {
				freq := s.tuning.Frequency(heldKey)
				velocityNorm := float64(monophonicReleaseVelocity) / 127.0
				if voice.Active() {
					voice.RestartNewNote(heldKey, s.sampleRateHz, freq, velocityNorm, buf)
				} else {
					voice.Start(heldKey, s.sampleRateHz, freq, velocityNorm, buf)
				}
			}
		}
		return
	}

	voice.Release(s.params.LoopThruRelease())
}

// SustainPedal is the control-agent entry point for a pedal event.
func (s *Sampler) SustainPedal(down bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if down {
		s.pedal.PedalDown()
		return
	}
	for key := 0; key < MIDINotes; key++ {
		if s.pedal.IsNoteSustaining(key) {
			s.stop(key, false)
		}
	}
	s.pedal.PedalUp()
}

// StopAllVoices quiesces the engine: it sets stopping_all_voices and
// busy-waits until Render has driven every voice idle. This is the only
// control-path operation allowed to busy-wait — it exists so bank mutation
// and key-map rebuilds have a safe window.
func (s *Sampler) StopAllVoices() {
	s.params.SetStoppingAllVoices(true)
	for {
		s.mutex.RLock()
		allIdle := true
		for _, v := range s.voices {
			if v.Active() {
				allIdle = false
				break
			}
		}
		s.mutex.RUnlock()
		if allIdle {
			return
		}
	}
}

// RestartVoices clears the stopping_all_voices flag, letting PlayNote
// allocate voices again.
func (s *Sampler) RestartVoices() {
	s.params.SetStoppingAllVoices(false)
}

// Render fills blockSize frames into left and right, which the caller must
// have pre-zeroed: voices add into them rather than replace their contents.
// This is the realtime entry point — it never allocates and takes only the
// brief write lock described on Sampler.
func (s *Sampler) Render(blockSize int, left, right []float32) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.vibrato.Configure(s.params.VibratoRateHz())
	vibrato := s.vibrato.AdvanceBlock(blockSize, s.sampleRateHz)
	pitchDev := s.params.PitchOffset() + s.params.VibratoDepth()*vibrato
	cutoffMul := s.params.CutoffMultipleOrDisabled()
	allowRunout := s.params.AllowRunout()
	masterVolume := s.params.MasterVolume()
	keyTracking := s.params.KeyTracking()
	cutoffEnvStrength := s.params.CutoffEnvelopeStrength()
	filterEnvVelScaling := s.params.FilterEnvelopeVelocityScaling()
	linearResonance := s.params.LinearResonance()
	stoppingAll := s.params.StoppingAllVoices()

	for _, voice := range s.voices {
		if !voice.Active() {
			continue
		}

		note := voice.NoteNumber()
		if stoppingAll {
			s.stopNote(note, true)
			continue
		}

		if voice.PrepToGetSamples(blockSize, masterVolume, pitchDev, cutoffMul, keyTracking, cutoffEnvStrength, filterEnvVelScaling, linearResonance) {
			s.stopNote(note, true)
			continue
		}

		if voice.GetSamples(blockSize, left, right) && allowRunout {
			s.stopNote(note, true)
		}
	}
}
