package sampler

// SampleDescriptor describes one sample to load into the bank: callers hand
// over planar or interleaved PCM plus the key/velocity mapping metadata, and
// the bank either copies it in or rejects it with ErrInvalidSample.
type SampleDescriptor struct {
	Data           []float32 // interleaved or planar, per IsInterleaved
	ChannelCount   int       // 1 or 2
	SampleCount    int       // frames per channel
	SampleRateHz   float64
	IsInterleaved  bool

	RootNoteNumber  int     // [0,127]
	RootFrequencyHz float64 // > 0

	MinKey, MaxKey             int // [0,127]
	MinVelocity, MaxVelocity   int // [0,127], or both negative for velocity-agnostic

	// StartPoint/EndPoint are fractional sample indices; zero value means
	// "use the default" (0 and SampleCount respectively).
	StartPoint, EndPoint float64

	IsLooping                        bool
	LoopStartPoint, LoopEndPoint float64
}

// SampleBuffer is an immutable, loaded sample. Every field is fixed at
// construction time by SampleBank.Load; nothing in the engine mutates a
// SampleBuffer after it is appended to the bank.
type SampleBuffer struct {
	ChannelCount int
	SampleRateHz float64
	SampleCount  int

	// Data is planar PCM: channel c, sample i is at Data[c*SampleCount+i].
	Data []float32

	RootNoteNumber  int
	RootFrequencyHz float64

	MinKey, MaxKey           int
	MinVelocity, MaxVelocity int // negative means velocity-agnostic

	StartPoint, EndPoint float64

	IsLooping                    bool
	LoopStartPoint, LoopEndPoint float64
}

// IsVelocityAgnostic reports whether this buffer matches any velocity.
func (b *SampleBuffer) IsVelocityAgnostic() bool {
	return b.MinVelocity < 0 || b.MaxVelocity < 0
}

// channelAt returns the sample at channel c, frame i. Out-of-range frames
// (used by the Voice's interpolation window past the buffer's edges) return
// silence rather than panicking, since the render path must never fault.
func (b *SampleBuffer) channelAt(c, i int) float32 {
	if i < 0 || i >= b.SampleCount {
		return 0
	}
	return b.Data[c*b.SampleCount+i]
}

// SampleBank is an ordered, append-only collection of loaded SampleBuffers.
// Insertion order is significant: it is the tie-break the KeyMap's lookup
// rules depend on.
type SampleBank struct {
	buffers []*SampleBuffer
}

// NewSampleBank creates an empty bank.
func NewSampleBank() *SampleBank {
	return &SampleBank{}
}

// Len returns the number of loaded buffers.
func (bk *SampleBank) Len() int {
	return len(bk.buffers)
}

// At returns the buffer at bank insertion index i.
func (bk *SampleBank) At(i int) *SampleBuffer {
	return bk.buffers[i]
}

// Buffers returns the bank's buffers in insertion order. The returned slice
// must not be mutated by the caller.
func (bk *SampleBank) Buffers() []*SampleBuffer {
	return bk.buffers
}

// Load validates a descriptor, de-interleaves it if necessary, resolves its
// loop points, and appends the resulting SampleBuffer to the bank. On any
// validation failure the bank is left unmodified and ErrInvalidSample (with
// a wrapped reason) is returned.
func (bk *SampleBank) Load(desc SampleDescriptor) (*SampleBuffer, error) {
	if desc.SampleCount <= 0 {
		return nil, wrapInvalidSample("sample_count must be > 0")
	}
	if desc.ChannelCount != 1 && desc.ChannelCount != 2 {
		return nil, wrapInvalidSample("channel_count must be 1 or 2")
	}
	wantLen := desc.ChannelCount * desc.SampleCount
	if len(desc.Data) < wantLen {
		return nil, wrapInvalidSample("data shorter than channel_count*sample_count")
	}

	buf := &SampleBuffer{
		ChannelCount:    desc.ChannelCount,
		SampleRateHz:    desc.SampleRateHz,
		SampleCount:     desc.SampleCount,
		RootNoteNumber:  clampKey(desc.RootNoteNumber),
		RootFrequencyHz: desc.RootFrequencyHz,
		MinKey:          clampKey(desc.MinKey),
		MaxKey:          clampKey(desc.MaxKey),
		MinVelocity:     desc.MinVelocity,
		MaxVelocity:     desc.MaxVelocity,
	}

	if desc.IsInterleaved {
		buf.Data = deinterleave(desc.Data, desc.ChannelCount, desc.SampleCount)
	} else {
		buf.Data = make([]float32, wantLen)
		copy(buf.Data, desc.Data[:wantLen])
	}

	startPoint := desc.StartPoint
	endPoint := desc.EndPoint
	if endPoint == 0 {
		endPoint = float64(desc.SampleCount)
	}
	if !(startPoint >= 0 && startPoint < endPoint && endPoint <= float64(desc.SampleCount)) {
		return nil, wrapInvalidSample("start_point/end_point out of range")
	}
	buf.StartPoint = startPoint
	buf.EndPoint = endPoint

	if desc.IsLooping {
		loopStart := resolveLoopPoint(desc.LoopStartPoint, endPoint)
		loopEnd := resolveLoopPoint(desc.LoopEndPoint, endPoint)
		if !(startPoint <= loopStart && loopStart < loopEnd && loopEnd <= endPoint) {
			return nil, wrapInvalidSample("loop points out of range")
		}
		buf.IsLooping = true
		buf.LoopStartPoint = loopStart
		buf.LoopEndPoint = loopEnd
	}

	bk.buffers = append(bk.buffers, buf)
	return buf, nil
}

// resolveLoopPoint applies the load-time convention: values > 1.0 are
// absolute sample indices, values in [0,1] are a fraction of endPoint.
func resolveLoopPoint(raw, endPoint float64) float64 {
	if raw > 1.0 {
		return raw
	}
	return raw * endPoint
}

func deinterleave(data []float32, channels, frames int) []float32 {
	out := make([]float32, channels*frames)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out[c*frames+i] = data[i*channels+c]
		}
	}
	return out
}

func clampKey(k int) int {
	if k < 0 {
		return 0
	}
	if k > 127 {
		return 127
	}
	return k
}

func wrapInvalidSample(reason string) error {
	return &invalidSampleError{reason: reason}
}

type invalidSampleError struct {
	reason string
}

func (e *invalidSampleError) Error() string {
	return "sampler: invalid sample descriptor: " + e.reason
}

func (e *invalidSampleError) Unwrap() error {
	return ErrInvalidSample
}
