package sampler

// KeyMapMode selects how BuildKeyMap resolves a MIDI key that falls between
// two mapped root notes.
type KeyMapMode int

const (
	// KeyMapSimple assigns every key to the bank entry whose RootNoteNumber,
	// taken as a 12-TET pitch, is closest in Hz to the key's tuned frequency,
	// ignoring MinKey/MaxKey. Ties (equal distance) are broken by bank
	// insertion order: the earlier-loaded buffer wins.
	KeyMapSimple KeyMapMode = iota
	// KeyMapRange assigns every key to the bank entry whose [MinKey,MaxKey]
	// range covers it. Overlapping ranges are broken by bank insertion
	// order: the earlier-loaded buffer wins.
	KeyMapRange
)

// keyBucket holds every bank entry mapped onto a single MIDI key, ordered by
// insertion so velocity lookup can apply a stable tie-break.
type keyBucket []*SampleBuffer

// KeyMap is a deterministic, rebuildable index from (key, velocity) to the
// SampleBuffer that should sound. It is built on the control path and never
// mutated on the render path: the engine's note handlers only call Lookup.
type KeyMap struct {
	mode    KeyMapMode
	buckets [MIDINotes]keyBucket
	valid   bool
}

// NewKeyMap returns an empty, invalid KeyMap. Lookup on an invalid map
// returns ErrKeyMapInvalid.
func NewKeyMap() *KeyMap {
	return &KeyMap{}
}

// Valid reports whether the map has been built since the last bank mutation.
func (m *KeyMap) Valid() bool {
	return m.valid
}

// Invalidate marks the map unusable. Sampler.LoadSample calls this after
// every successful load. SampleBank.Load does not, so a buffer appended
// directly through Sampler.Bank() leaves the map valid, still serving the
// buckets of its last Build, until the next Build.
func (m *KeyMap) Invalidate() {
	m.valid = false
	for k := range m.buckets {
		m.buckets[k] = nil
	}
}

// Build rebuilds the map from scratch against the bank's current contents
// using the given mode and tuning table. It always succeeds (even against an
// empty bank, which simply yields an empty, valid map).
//
// The tuning table supplies fk = freq[k] for each key; it does NOT affect
// the 12-TET pitch used for a buffer's own root_note_number, which is always
// computed from the nominal A4=440Hz table regardless of any per-key tuning
// override. This keeps the map independent of the engine's tuning table.
func (m *KeyMap) Build(bank *SampleBank, tuning *TuningTable, mode KeyMapMode) {
	m.mode = mode
	for k := range m.buckets {
		m.buckets[k] = nil
	}

	switch mode {
	case KeyMapRange:
		m.buildRange(bank, tuning)
	default:
		m.buildSimple(bank, tuning)
	}
	m.valid = true
}

func (m *KeyMap) buildRange(bank *SampleBank, tuning *TuningTable) {
	for key := 0; key < MIDINotes; key++ {
		fk := tuning.Frequency(key)
		for _, buf := range bank.Buffers() {
			if twelveTETHz(buf.MinKey) <= fk && fk <= twelveTETHz(buf.MaxKey) {
				m.buckets[key] = append(m.buckets[key], buf)
			}
		}
	}
}

// buildSimple picks, for every key, every buffer tied for pitch-closest to
// that key's tuned frequency, measuring distance against each buffer's
// nominal 12-TET root pitch rather than its stored RootFrequencyHz.
func (m *KeyMap) buildSimple(bank *SampleBank, tuning *TuningTable) {
	buffers := bank.Buffers()
	if len(buffers) == 0 {
		return
	}
	for key := 0; key < MIDINotes; key++ {
		fk := tuning.Frequency(key)

		dmin := absf(twelveTETHz(buffers[0].RootNoteNumber) - fk)
		for _, buf := range buffers[1:] {
			d := absf(twelveTETHz(buf.RootNoteNumber) - fk)
			if d < dmin {
				dmin = d
			}
		}

		var bucket keyBucket
		for _, buf := range buffers {
			if absf(twelveTETHz(buf.RootNoteNumber)-fk) == dmin {
				bucket = append(bucket, buf)
			}
		}
		m.buckets[key] = bucket
	}
}

// Lookup returns the SampleBuffer that should sound for a given MIDI key
// and velocity. Within a key's bucket, the first buffer (in bank insertion
// order) whose velocity range contains velocity wins; a velocity-agnostic
// buffer matches any velocity. ErrKeyMapInvalid is returned if Build has not
// run since the last invalidation; ErrNoSampleMapped is returned if the key
// has mapped buffers but none match this velocity.
func (m *KeyMap) Lookup(key, velocity int) (*SampleBuffer, error) {
	if !m.valid {
		return nil, ErrKeyMapInvalid
	}
	if key < 0 || key >= MIDINotes {
		return nil, ErrNoSampleMapped
	}
	bucket := m.buckets[key]
	if len(bucket) == 0 {
		return nil, ErrNoSampleMapped
	}
	if len(bucket) == 1 {
		return bucket[0], nil
	}
	for _, buf := range bucket {
		if buf.IsVelocityAgnostic() {
			return buf, nil
		}
		if velocity >= buf.MinVelocity && velocity <= buf.MaxVelocity {
			return buf, nil
		}
	}
	return nil, ErrNoSampleMapped
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
