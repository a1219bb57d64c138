package sampler

import "testing"

func TestKeyUpWithoutPedalStopsImmediately(t *testing.T) {
	s := NewSustainPedalLogic()
	s.KeyDown(60)
	if !s.KeyUp(60) {
		t.Fatalf("expected KeyUp to report shouldStop=true when the pedal is up")
	}
	if s.IsNoteSustaining(60) {
		t.Fatalf("a key released with the pedal up must never become sustaining")
	}
}

func TestKeyUpWithPedalDownDefersStop(t *testing.T) {
	s := NewSustainPedalLogic()
	s.KeyDown(60)
	s.PedalDown()
	if s.KeyUp(60) {
		t.Fatalf("expected KeyUp to report shouldStop=false while the pedal is held")
	}
	if !s.IsNoteSustaining(60) {
		t.Fatalf("expected key 60 to be marked sustaining")
	}
	if s.IsAnyKeyDown() {
		t.Fatalf("a sustaining key must not also be reported as physically down")
	}
}

func TestPedalUpClearsSustainingButCallerMustStopVoices(t *testing.T) {
	s := NewSustainPedalLogic()
	s.KeyDown(60)
	s.PedalDown()
	s.KeyUp(60)
	if !s.IsNoteSustaining(60) {
		t.Fatalf("precondition: key 60 should be sustaining")
	}
	s.PedalUp()
	if s.IsNoteSustaining(60) {
		t.Fatalf("expected PedalUp to clear the sustaining flag")
	}
}

func TestPedalDownIsIdempotent(t *testing.T) {
	s := NewSustainPedalLogic()
	s.KeyDown(60)
	s.PedalDown()
	s.KeyUp(60)
	s.PedalDown() // second consecutive call must not disturb sustaining state
	if !s.IsNoteSustaining(60) {
		t.Fatalf("a redundant PedalDown must not clear existing sustain state")
	}
}

func TestKeyDownClearsStaleSustainFlag(t *testing.T) {
	s := NewSustainPedalLogic()
	s.KeyDown(60)
	s.PedalDown()
	s.KeyUp(60)
	if !s.IsNoteSustaining(60) {
		t.Fatalf("precondition: key 60 should be sustaining")
	}
	s.KeyDown(60) // re-striking the same key while it's still sustaining
	if s.IsNoteSustaining(60) {
		t.Fatalf("expected a fresh KeyDown to clear the stale sustaining flag")
	}
	if !s.IsAnyKeyDown() {
		t.Fatalf("expected key 60 to be reported as physically down again")
	}
}

func TestFirstKeyDownReturnsLowestHeldKey(t *testing.T) {
	s := NewSustainPedalLogic()
	if got := s.FirstKeyDown(); got != -1 {
		t.Fatalf("expected -1 with no keys held, got %d", got)
	}
	s.KeyDown(64)
	s.KeyDown(60)
	s.KeyDown(67)
	if got := s.FirstKeyDown(); got != 60 {
		t.Fatalf("expected lowest held key 60, got %d", got)
	}
}

func TestResetClearsAllState(t *testing.T) {
	s := NewSustainPedalLogic()
	s.KeyDown(60)
	s.PedalDown()
	s.KeyUp(60)
	s.Reset()

	if s.IsAnyKeyDown() || s.IsNoteSustaining(60) || s.FirstKeyDown() != -1 {
		t.Fatalf("expected Reset to fully clear held and sustaining state")
	}
}

func TestOutOfRangeKeysAreIgnoredSafely(t *testing.T) {
	s := NewSustainPedalLogic()
	s.KeyDown(-1)
	s.KeyDown(200)
	if s.IsAnyKeyDown() {
		t.Fatalf("out-of-range KeyDown must not register as a held key")
	}
	if !s.KeyUp(-1) {
		t.Fatalf("out-of-range KeyUp should report shouldStop=true defensively")
	}
}
