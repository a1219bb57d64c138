package sampler

import (
	"fmt"
	"os"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
)

// ConvolutionSend is an optional, non-core post-render effect: a cabinet or
// room impulse-response send a caller applies to the already-rendered
// stereo output of Sampler.Render, the way an outboard reverb or cab-sim
// send sits after an instrument rather than inside its voice path. It sits
// entirely outside Render's realtime contract — nothing in Sampler.Render
// touches it, and ProcessStereo is free to allocate internally the way the
// per-voice kernel never may.
//
// It differs from a single-excitation body convolver in two ways that
// matter for a sample-playback engine rather than a physically-modeled
// instrument: it takes the engine's own stereo mix as input (left and
// right are convolved independently against their own IR channel, so a
// stereo room IR keeps its own left/right character), and it blends the
// convolved signal back against the dry mix by Mix instead of replacing
// it outright, the way a send-effect fader works on a mixing desk.
type ConvolutionSend struct {
	sampleRate int
	partSize   int
	irLen      int
	mix        float32 // 0 = dry passthrough, 1 = fully wet

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	leftOut  []float32
	rightOut []float32
}

// NewConvolutionSend creates a convolution send with a unity (pass-through)
// impulse response and a fully wet mix.
func NewConvolutionSend(sampleRate int) *ConvolutionSend {
	c := &ConvolutionSend{
		sampleRate: sampleRate,
		partSize:   128,
		mix:        1.0,
	}
	c.SetIR([]float32{1.0}, []float32{1.0})
	return c
}

// SetMix sets the wet/dry blend ProcessStereo applies, clamped to [0,1].
func (c *ConvolutionSend) SetMix(mix float32) {
	if mix < 0 {
		mix = 0
	}
	if mix > 1 {
		mix = 1
	}
	c.mix = mix
}

// ProcessStereo convolves a stereo block against the loaded impulse
// response, one channel against its own IR channel, and returns new
// left/right slices holding the Mix-blended wet+dry result. inLeft and
// inRight are read, never mutated.
func (c *ConvolutionSend) ProcessStereo(inLeft, inRight []float32) (outLeft, outRight []float32) {
	n := len(inLeft)
	outLeft = make([]float32, n)
	outRight = make([]float32, n)
	if n == 0 {
		return outLeft, outRight
	}

	dryGain := 1 - c.mix
	wetGain := c.mix

	processed := 0
	for processed < n {
		blockEnd := processed + c.partSize
		if blockEnd > n {
			blockEnd = n
		}
		blockLen := blockEnd - processed

		leftBlock := inLeft[processed:blockEnd]
		rightBlock := inRight[processed:blockEnd]
		if blockLen < c.partSize {
			paddedL := make([]float32, c.partSize)
			paddedR := make([]float32, c.partSize)
			copy(paddedL, leftBlock)
			copy(paddedR, rightBlock)
			leftBlock = paddedL
			rightBlock = paddedR
		}

		errL := c.leftOLA.ProcessBlockTo(c.leftOut, leftBlock)
		errR := c.rightOLA.ProcessBlockTo(c.rightOut, rightBlock)
		if errL != nil || errR != nil {
			for i := 0; i < blockLen; i++ {
				outLeft[processed+i] = inLeft[processed+i]
				outRight[processed+i] = inRight[processed+i]
			}
			processed = blockEnd
			continue
		}

		for i := 0; i < blockLen; i++ {
			outLeft[processed+i] = dryGain*inLeft[processed+i] + wetGain*c.leftOut[i]
			outRight[processed+i] = dryGain*inRight[processed+i] + wetGain*c.rightOut[i]
		}

		processed = blockEnd
	}

	return outLeft, outRight
}

// SetIR configures the left/right impulse responses directly.
func (c *ConvolutionSend) SetIR(leftIR, rightIR []float32) {
	if len(leftIR) == 0 {
		leftIR = []float32{1.0}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1.0}
	}

	leftOLA, errL := dspconv.NewStreamingOverlapAdd32(leftIR, c.partSize)
	rightOLA, errR := dspconv.NewStreamingOverlapAdd32(rightIR, c.partSize)
	if errL != nil || errR != nil {
		return
	}
	c.leftOLA = leftOLA
	c.rightOLA = rightOLA
	c.irLen = len(leftIR)
	if len(rightIR) > c.irLen {
		c.irLen = len(rightIR)
	}
	if c.irLen < 1 {
		c.irLen = 1
	}

	c.leftOut = make([]float32, c.partSize)
	c.rightOut = make([]float32, c.partSize)

	c.Reset()
}

// SetIRFromWAV loads a mono/stereo impulse response from a WAV file,
// resampling it to the send's operating rate if the file's rate differs.
func (c *ConvolutionSend) SetIRFromWAV(path string) error {
	interleaved, numCh, srcRate, err := readWAVPCM(path)
	if err != nil {
		return err
	}

	left, right := deinterleaveStereo(interleaved, numCh)

	for _, pair := range []*[]float32{&left, &right} {
		resampled, err := c.resampleIfNeeded(*pair, srcRate)
		if err != nil {
			return err
		}
		*pair = resampled
	}

	c.SetIR(left, right)
	return nil
}

// readWAVPCM opens and decodes path as PCM WAV, returning its raw
// interleaved samples, channel count, and source sample rate.
func readWAVPCM(path string) (data []float32, numCh, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, 0, 0, fmt.Errorf("invalid wav sample-rate: %d", buf.Format.SampleRate)
	}
	if len(buf.Data) == 0 {
		return nil, 0, 0, fmt.Errorf("empty wav data: %s", path)
	}

	return buf.Data, buf.Format.NumChannels, buf.Format.SampleRate, nil
}

// deinterleaveStereo splits an interleaved PCM buffer of numCh channels
// into independent left/right slices, duplicating a mono source to both.
func deinterleaveStereo(interleaved []float32, numCh int) (left, right []float32) {
	frames := len(interleaved) / numCh
	left = make([]float32, frames)
	right = make([]float32, frames)
	for frame := 0; frame < frames; frame++ {
		base := frame * numCh
		left[frame] = interleaved[base]
		if numCh > 1 {
			right[frame] = interleaved[base+1]
		} else {
			right[frame] = interleaved[base]
		}
	}
	return left, right
}

// Reset clears the send's overlap-add history.
func (c *ConvolutionSend) Reset() {
	if c.leftOLA != nil {
		c.leftOLA.Reset()
	}
	if c.rightOLA != nil {
		c.rightOLA.Reset()
	}
}

func (c *ConvolutionSend) resampleIfNeeded(in []float32, inRate int) ([]float32, error) {
	if inRate == c.sampleRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(inRate),
		float64(c.sampleRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}

	return toFloat32(r.Process(toFloat64(in))), nil
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
