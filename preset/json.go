// Package preset loads a JSON configuration file and applies it onto a
// sampler engine: scalar control overrides plus the list of sample assets
// to load into the bank. Every scalar and envelope field in File is a
// pointer so "not present in the JSON" and "set to the zero value" are
// distinguishable, and an unset scalar keeps whatever the destination
// already held before ApplyFile ran. A present envelope object starts from
// DefaultEnvelopeParameters, not from the destination's current envelope,
// so its unset sub-fields take the defaults. KeyMapMode is a plain string:
// when empty the simple map is used, and the key map is always rebuilt.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-sampler/internal/audiofile"
	"github.com/cwbudde/algo-sampler/sampler"
)

// EnvelopeFile is the JSON shape of an ADSR contour override.
type EnvelopeFile struct {
	AttackSeconds  *float64 `json:"attack_seconds"`
	DecaySeconds   *float64 `json:"decay_seconds"`
	SustainLevel   *float64 `json:"sustain_level"`
	ReleaseSeconds *float64 `json:"release_seconds"`
}

// SampleFile is one entry in the preset's sample asset list.
type SampleFile struct {
	Path            string  `json:"path"`
	RootNoteNumber  int     `json:"root_note_number"`
	RootFrequencyHz float64 `json:"root_frequency_hz"`
	MinKey          *int    `json:"min_key"`
	MaxKey          *int    `json:"max_key"`
	MinVelocity     *int    `json:"min_velocity"`
	MaxVelocity     *int    `json:"max_velocity"`
	StartPoint      float64 `json:"start_point"`
	EndPoint        float64 `json:"end_point"`
	IsLooping       bool    `json:"is_looping"`
	LoopStartPoint  float64 `json:"loop_start_point"`
	LoopEndPoint    float64 `json:"loop_end_point"`
}

// File is the JSON schema for sampler presets.
type File struct {
	MasterVolume                  *float64      `json:"master_volume"`
	PitchOffsetSemitones          *float64      `json:"pitch_offset_semitones"`
	VibratoDepthSemitones         *float64      `json:"vibrato_depth_semitones"`
	VibratoRateHz                 *float64      `json:"vibrato_rate_hz"`
	GlideRateSecPerOctave         *float64      `json:"glide_rate_sec_per_octave"`
	IsMonophonic                  *bool         `json:"is_monophonic"`
	IsLegato                      *bool         `json:"is_legato"`
	LoopThruRelease               *bool         `json:"loop_thru_release"`
	IsFilterEnabled               *bool         `json:"is_filter_enabled"`
	CutoffMultiple                *float64      `json:"cutoff_multiple"`
	KeyTracking                   *float64      `json:"key_tracking"`
	CutoffEnvelopeStrength        *float64      `json:"cutoff_envelope_strength"`
	FilterEnvelopeVelocityScaling *float64      `json:"filter_envelope_velocity_scaling"`
	LinearResonance               *float64      `json:"linear_resonance"`
	AmpEnvelope                   *EnvelopeFile `json:"amp_envelope"`
	FilterEnvelope                *EnvelopeFile `json:"filter_envelope"`
	KeyMapMode                    string        `json:"key_map_mode"` // "simple" (default) or "range"
	Samples                       []SampleFile  `json:"samples"`
}

// LoadJSON reads a preset file, builds a fresh Sampler at sampleRateHz, and
// applies the preset's scalar overrides and sample list onto it. Relative
// asset paths are resolved against the preset file's own directory.
func LoadJSON(path string, sampleRateHz float64) (*sampler.Sampler, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	s := sampler.NewSampler(sampleRateHz)
	if err := ApplyFile(s, &f, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyFile applies a parsed preset file onto an existing Sampler: scalar
// parameter overrides first, then every listed sample asset, then a
// key-map rebuild in the requested mode. baseDir resolves relative sample
// paths; pass "" to disable resolution (paths are used as-is).
func ApplyFile(dst *sampler.Sampler, f *File, baseDir string) error {
	if dst == nil {
		return fmt.Errorf("nil destination sampler")
	}
	if f == nil {
		return nil
	}

	p := dst.Params()

	if f.MasterVolume != nil {
		if *f.MasterVolume < 0 {
			return fmt.Errorf("master_volume must be >= 0")
		}
		p.SetMasterVolume(*f.MasterVolume)
	}
	if f.PitchOffsetSemitones != nil {
		p.SetPitchOffset(*f.PitchOffsetSemitones)
	}
	if f.VibratoDepthSemitones != nil {
		p.SetVibratoDepth(*f.VibratoDepthSemitones)
	}
	if f.VibratoRateHz != nil {
		if *f.VibratoRateHz < 0 {
			return fmt.Errorf("vibrato_rate_hz must be >= 0")
		}
		p.SetVibratoRateHz(*f.VibratoRateHz)
	}
	if f.GlideRateSecPerOctave != nil {
		if *f.GlideRateSecPerOctave < 0 {
			return fmt.Errorf("glide_rate_sec_per_octave must be >= 0")
		}
		p.SetGlideRate(*f.GlideRateSecPerOctave)
	}
	if f.IsMonophonic != nil {
		p.SetIsMonophonic(*f.IsMonophonic)
	}
	if f.IsLegato != nil {
		p.SetIsLegato(*f.IsLegato)
	}
	if f.LoopThruRelease != nil {
		p.SetLoopThruRelease(*f.LoopThruRelease)
	}
	if f.IsFilterEnabled != nil {
		p.SetIsFilterEnabled(*f.IsFilterEnabled)
	}
	if f.CutoffMultiple != nil {
		if *f.CutoffMultiple <= 0 {
			return fmt.Errorf("cutoff_multiple must be > 0")
		}
		p.SetCutoffMultiple(*f.CutoffMultiple)
	}
	if f.KeyTracking != nil {
		p.SetKeyTracking(*f.KeyTracking)
	}
	if f.CutoffEnvelopeStrength != nil {
		p.SetCutoffEnvelopeStrength(*f.CutoffEnvelopeStrength)
	}
	if f.FilterEnvelopeVelocityScaling != nil {
		p.SetFilterEnvelopeVelocityScaling(*f.FilterEnvelopeVelocityScaling)
	}
	if f.LinearResonance != nil {
		if *f.LinearResonance < 0 {
			return fmt.Errorf("linear_resonance must be >= 0")
		}
		p.SetLinearResonance(*f.LinearResonance)
	}

	if f.AmpEnvelope != nil {
		env, err := applyEnvelope(sampler.DefaultEnvelopeParameters(), f.AmpEnvelope)
		if err != nil {
			return fmt.Errorf("amp_envelope: %w", err)
		}
		dst.SetAmpEnvelope(env)
	}
	if f.FilterEnvelope != nil {
		env, err := applyEnvelope(sampler.DefaultEnvelopeParameters(), f.FilterEnvelope)
		if err != nil {
			return fmt.Errorf("filter_envelope: %w", err)
		}
		dst.SetFilterEnvelope(env)
	}

	for i, sf := range f.Samples {
		path := strings.TrimSpace(sf.Path)
		if path == "" {
			return fmt.Errorf("samples[%d]: path must not be empty", i)
		}
		if baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Clean(filepath.Join(baseDir, path))
		}
		meta := audiofile.SampleMetadata{
			RootNoteNumber:  sf.RootNoteNumber,
			RootFrequencyHz: sf.RootFrequencyHz,
			MinKey:          intOr(sf.MinKey, 0),
			MaxKey:          intOr(sf.MaxKey, 127),
			MinVelocity:     intOr(sf.MinVelocity, -1),
			MaxVelocity:     intOr(sf.MaxVelocity, -1),
			StartPoint:      sf.StartPoint,
			EndPoint:        sf.EndPoint,
			IsLooping:       sf.IsLooping,
			LoopStartPoint:  sf.LoopStartPoint,
			LoopEndPoint:    sf.LoopEndPoint,
		}
		if _, err := audiofile.LoadSampleBufferFromWAV(dst.Bank(), path, meta); err != nil {
			return fmt.Errorf("samples[%d]: %w", i, err)
		}
	}

	mode := sampler.KeyMapSimple
	if strings.EqualFold(f.KeyMapMode, "range") {
		mode = sampler.KeyMapRange
	}
	dst.BuildKeyMap(mode)

	return nil
}

func applyEnvelope(base sampler.EnvelopeParameters, f *EnvelopeFile) (sampler.EnvelopeParameters, error) {
	if f.AttackSeconds != nil {
		if *f.AttackSeconds < 0 {
			return base, fmt.Errorf("attack_seconds must be >= 0")
		}
		base.AttackSeconds = *f.AttackSeconds
	}
	if f.DecaySeconds != nil {
		if *f.DecaySeconds < 0 {
			return base, fmt.Errorf("decay_seconds must be >= 0")
		}
		base.DecaySeconds = *f.DecaySeconds
	}
	if f.SustainLevel != nil {
		if *f.SustainLevel < 0 || *f.SustainLevel > 1 {
			return base, fmt.Errorf("sustain_level must be in [0,1]")
		}
		base.SustainLevel = *f.SustainLevel
	}
	if f.ReleaseSeconds != nil {
		if *f.ReleaseSeconds < 0 {
			return base, fmt.Errorf("release_seconds must be >= 0")
		}
		base.ReleaseSeconds = *f.ReleaseSeconds
	}
	return base, nil
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
