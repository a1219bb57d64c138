package sampler

// SustainPedalLogic tracks which keys are physically held and which voices
// are being kept alive only because the sustain pedal is down. It is the
// single source of truth the engine consults on every note-off and pedal
// transition; it holds no audio state of its own.
//
// The two boolean arrays extend a plain per-key "is this key currently
// depressed" table with a second table for "released, but still sounding
// because the pedal is down". A key is never simultaneously in both tables.
type SustainPedalLogic struct {
	keysDown       [MIDINotes]bool
	keysSustaining [MIDINotes]bool
	pedalIsDown    bool
}

// NewSustainPedalLogic returns a tracker with the pedal up and no keys held.
func NewSustainPedalLogic() *SustainPedalLogic {
	return &SustainPedalLogic{}
}

// KeyDown records a physical key press. Any stale "sustaining" flag for
// this key is cleared: the new strike owns the key now.
func (s *SustainPedalLogic) KeyDown(key int) {
	if key < 0 || key >= MIDINotes {
		return
	}
	s.keysDown[key] = true
	s.keysSustaining[key] = false
}

// KeyUp records a physical key release and reports whether the
// corresponding voice should stop now. If the pedal is down, the key
// instead becomes "sustaining" and false is returned — the voice must keep
// sounding until PedalUp.
func (s *SustainPedalLogic) KeyUp(key int) (shouldStop bool) {
	if key < 0 || key >= MIDINotes {
		return true
	}
	s.keysDown[key] = false
	if s.pedalIsDown {
		s.keysSustaining[key] = true
		return false
	}
	return true
}

// PedalDown marks the sustain pedal held. A second consecutive call is a
// no-op, making pedal-down idempotent.
func (s *SustainPedalLogic) PedalDown() {
	s.pedalIsDown = true
}

// PedalUp lifts the sustain pedal and clears every sustaining flag. The
// caller is responsible for stopping those keys' voices before or after
// calling this — PedalUp only updates bookkeeping.
func (s *SustainPedalLogic) PedalUp() {
	for key := range s.keysSustaining {
		s.keysSustaining[key] = false
	}
	s.pedalIsDown = false
}

// IsAnyKeyDown reports whether at least one key is currently physically
// held.
func (s *SustainPedalLogic) IsAnyKeyDown() bool {
	for _, down := range s.keysDown {
		if down {
			return true
		}
	}
	return false
}

// IsNoteSustaining reports whether a key's voice is sounding only because
// the pedal is held.
func (s *SustainPedalLogic) IsNoteSustaining(key int) bool {
	if key < 0 || key >= MIDINotes {
		return false
	}
	return s.keysSustaining[key]
}

// FirstKeyDown returns the lowest-numbered key currently physically held,
// or -1 if none is.
func (s *SustainPedalLogic) FirstKeyDown() int {
	for key, down := range s.keysDown {
		if down {
			return key
		}
	}
	return -1
}

// Reset clears all held/sustaining state and lifts the pedal.
func (s *SustainPedalLogic) Reset() {
	for k := range s.keysDown {
		s.keysDown[k] = false
		s.keysSustaining[k] = false
	}
	s.pedalIsDown = false
}
