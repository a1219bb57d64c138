// Package audiofile reads PCM WAV files into the shapes sampler.SampleBank
// expects. It is the non-realtime, allocating counterpart to the render
// path: every function here runs on the control agent, at preset/asset
// load time, never from Sampler.Render.
package audiofile

import (
	"fmt"
	"os"

	"github.com/cwbudde/wav"

	"github.com/cwbudde/algo-sampler/sampler"
)

// SampleMetadata carries the key/velocity mapping and loop information a
// WAV file's PCM data alone can't supply. Zero-valued loop/start/end fields
// take SampleDescriptor's own defaults (whole-buffer, no loop).
type SampleMetadata struct {
	RootNoteNumber  int
	RootFrequencyHz float64

	MinKey, MaxKey           int
	MinVelocity, MaxVelocity int

	StartPoint, EndPoint float64

	IsLooping                    bool
	LoopStartPoint, LoopEndPoint float64
}

// LoadSampleBufferFromWAV decodes a PCM WAV file at path, combines it with
// the caller-supplied metadata into a SampleDescriptor, and appends the
// result to bank via SampleBank.Load. No resampling is performed: the
// file's own sample rate becomes the buffer's SampleRateHz as-is, so the
// caller is responsible for supplying material at the engine's operating
// rate.
func LoadSampleBufferFromWAV(bank *sampler.SampleBank, path string, meta SampleMetadata) (*sampler.SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audiofile: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("audiofile: invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audiofile: decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("audiofile: invalid wav buffer: %s", path)
	}

	channels := buf.Format.NumChannels
	if channels > 2 {
		return nil, fmt.Errorf("audiofile: %s has %d channels, only mono/stereo are supported", path, channels)
	}
	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, fmt.Errorf("audiofile: %s has no frames", path)
	}

	desc := sampler.SampleDescriptor{
		Data:            buf.Data,
		ChannelCount:    channels,
		SampleCount:     frames,
		SampleRateHz:    float64(buf.Format.SampleRate),
		IsInterleaved:   true,
		RootNoteNumber:  meta.RootNoteNumber,
		RootFrequencyHz: meta.RootFrequencyHz,
		MinKey:          meta.MinKey,
		MaxKey:          meta.MaxKey,
		MinVelocity:     meta.MinVelocity,
		MaxVelocity:     meta.MaxVelocity,
		StartPoint:      meta.StartPoint,
		EndPoint:        meta.EndPoint,
		IsLooping:       meta.IsLooping,
		LoopStartPoint:  meta.LoopStartPoint,
		LoopEndPoint:    meta.LoopEndPoint,
	}

	out, err := bank.Load(desc)
	if err != nil {
		return nil, fmt.Errorf("audiofile: %s: %w", path, err)
	}
	return out, nil
}
