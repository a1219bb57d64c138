package sampler

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/interp"

	"github.com/cwbudde/algo-sampler/dsp"
)

// baseFilterCutoffHz is the nominal lowpass cutoff before cutoff_multiple,
// key tracking, and the filter envelope are applied.
const baseFilterCutoffHz = 4000.0

// Voice is one polyphonic playback slot. A fixed pool of MaxPolyphony
// Voices is created once at engine init; idle is noteNumber < 0. Only the
// render agent touches a Voice's DSP state during Render; the control
// agent only calls the methods below, and only between render calls.
//
// It reads a bound SampleBuffer at a fractional, pitch-ratio-scaled
// position with Hermite interpolation, wrapping on its loop region or
// running out past end_point, and shapes the output with an amp ADSR and
// an optional filter-envelope-modulated lowpass.
type Voice struct {
	sampleRate float64

	noteNumber int // -1 == idle
	velocity   int
	buffer     *SampleBuffer

	samplePos    float64 // fractional frame index into buffer.Data
	playbackRate float64
	loopEngaged  bool
	releasing    bool
	loopThru     bool

	glideActive bool
	glideFrom   float64 // Hz
	glideTarget float64 // Hz
	glideRate   float64 // sec/octave, snapshotted at glide start

	ampEnv      *envelopeGenerator
	filterEnv   *envelopeGenerator
	filterLeft  dsp.Biquad
	filterRight dsp.Biquad

	ampParams    *EnvelopeParameters
	filterParams *EnvelopeParameters

	masterVolume  float64
	filterEnabled bool
}

// NewVoice creates one idle voice bound to the engine's output sample rate
// and the shared amp/filter envelope parameter records.
func NewVoice(sampleRate float64, ampParams, filterParams *EnvelopeParameters) *Voice {
	v := &Voice{
		sampleRate:   sampleRate,
		noteNumber:   -1,
		ampEnv:       newEnvelopeGenerator(sampleRate),
		filterEnv:    newEnvelopeGenerator(sampleRate),
		ampParams:    ampParams,
		filterParams: filterParams,
	}
	v.ampEnv.Configure(*ampParams)
	v.filterEnv.Configure(*filterParams)
	return v
}

// Active reports whether the voice is currently bound to a sounding note.
func (v *Voice) Active() bool {
	return v.noteNumber >= 0
}

// NoteNumber returns the currently sounding key, or -1 if idle.
func (v *Voice) NoteNumber() int {
	return v.noteNumber
}

// Start begins playback from idle.
func (v *Voice) Start(key int, outSampleRateHz, noteFreqHz, velocityNorm float64, buffer *SampleBuffer) {
	v.noteNumber = key
	v.velocity = int(math.Round(velocityNorm * 127))
	v.buffer = buffer
	v.sampleRate = outSampleRateHz
	v.samplePos = buffer.StartPoint
	v.loopEngaged = buffer.IsLooping
	v.releasing = false
	v.glideActive = false
	v.glideFrom = noteFreqHz
	v.glideTarget = noteFreqHz
	v.filterLeft.Reset()
	v.filterRight.Reset()
	v.ampEnv.Configure(*v.ampParams)
	v.filterEnv.Configure(*v.filterParams)
	v.ampEnv.Trigger()
	v.filterEnv.Trigger()
}

// RestartSameNote retriggers envelopes without changing pitch bookkeeping.
func (v *Voice) RestartSameNote(velocityNorm float64, buffer *SampleBuffer) {
	v.velocity = int(math.Round(velocityNorm * 127))
	v.buffer = buffer
	v.samplePos = buffer.StartPoint
	v.loopEngaged = buffer.IsLooping
	v.releasing = false
	v.glideActive = false
	v.filterLeft.Reset()
	v.filterRight.Reset()
	v.ampEnv.Trigger()
	v.filterEnv.Trigger()
}

// RestartNewNote is a full retrigger with a new pitch and sample.
func (v *Voice) RestartNewNote(key int, outSampleRateHz, noteFreqHz, velocityNorm float64, buffer *SampleBuffer) {
	v.Start(key, outSampleRateHz, noteFreqHz, velocityNorm, buffer)
}

// RestartNewNoteLegato changes the target pitch while leaving envelopes and
// the currently bound sample running — the monophonic/legato retarget path.
func (v *Voice) RestartNewNoteLegato(key int, outSampleRateHz, noteFreqHz float64, glideRateSecPerOctave float64) {
	v.noteNumber = key
	v.sampleRate = outSampleRateHz
	if glideRateSecPerOctave > 0 {
		v.glideActive = true
		v.glideFrom = v.currentGlideFreq()
		v.glideTarget = noteFreqHz
		v.glideRate = glideRateSecPerOctave
	} else {
		v.glideActive = false
		v.glideFrom = noteFreqHz
		v.glideTarget = noteFreqHz
	}
}

// currentGlideFreq returns the frequency the voice is sounding at right
// now, interpolated along the in-flight glide if one is active.
func (v *Voice) currentGlideFreq() float64 {
	if !v.glideActive {
		return v.glideTarget
	}
	return v.glideFrom
}

// Release enters the release stage. loopThruRelease controls whether the
// voice keeps wrapping its loop region during the release tail or instead
// plays out past end_point to silence.
func (v *Voice) Release(loopThruRelease bool) {
	if !v.Active() {
		return
	}
	v.releasing = true
	v.loopThru = loopThruRelease
	v.ampEnv.ReleaseNote()
	v.filterEnv.ReleaseNote()
}

// Stop forces the voice immediately back to idle.
func (v *Voice) Stop() {
	v.noteNumber = -1
	v.buffer = nil
	v.releasing = false
	v.glideActive = false
	v.ampEnv.Reset()
	v.filterEnv.Reset()
	v.filterLeft.Reset()
	v.filterRight.Reset()
}

// UpdateAmpADSRParameters tells the voice the shared amp envelope shape
// changed; it recomputes coefficients without disturbing the current stage.
func (v *Voice) UpdateAmpADSRParameters() {
	v.ampEnv.Configure(*v.ampParams)
}

// UpdateFilterADSRParameters is the filter-envelope counterpart.
func (v *Voice) UpdateFilterADSRParameters() {
	v.filterEnv.Configure(*v.filterParams)
}

// PrepToGetSamples computes this block's pitch ratio and filter
// coefficients. It returns true if the voice has already ended (idle amp
// envelope) and must be retired before GetSamples is even called.
func (v *Voice) PrepToGetSamples(
	blockSize int,
	masterVolume float64,
	pitchDevSemitones float64,
	cutoffMultipleOrNeg float64,
	keyTracking float64,
	cutoffEnvStrength float64,
	filterEnvVelScaling float64,
	linearResonance float64,
) bool {
	if !v.Active() {
		return true
	}
	if !v.ampEnv.Active() && v.releasing {
		v.Stop()
		return true
	}

	targetFreq := v.resolveGlide(blockSize)
	devRatio := pow2Approx(pitchDevSemitones / 12.0)
	v.playbackRate = (targetFreq * devRatio) / v.buffer.RootFrequencyHz

	v.masterVolume = masterVolume
	v.filterEnabled = cutoffMultipleOrNeg >= 0
	if v.filterEnabled {
		velocityNorm := float64(v.velocity) / 127.0
		filterEnvValue := v.filterEnv.Value()
		trackingRatio := pow2Approx(keyTracking * float64(v.noteNumber-60) / 12.0)
		envRatio := pow2Approx(cutoffEnvStrength * filterEnvValue * filterEnvVelScaling * velocityNorm)
		cutoff := baseFilterCutoffHz * cutoffMultipleOrNeg * trackingRatio * envRatio
		nyquist := v.sampleRate * 0.5
		cutoff = clampFloat(cutoff, 20.0, nyquist*0.99)
		q := float64(dsp.LinearResonanceToQ(float32(linearResonance)))
		v.filterLeft.SetLowpass(float32(cutoff), float32(v.sampleRate), float32(q))
		v.filterRight.SetLowpass(float32(cutoff), float32(v.sampleRate), float32(q))
	}

	return false
}

// resolveGlide advances the in-flight portamento ramp by one block, and
// returns the frequency the voice should sound at for this block.
func (v *Voice) resolveGlide(blockSize int) float64 {
	if !v.glideActive {
		return v.glideTarget
	}
	if v.glideRate <= 0 {
		v.glideActive = false
		return v.glideTarget
	}

	blockSeconds := float64(blockSize) / v.sampleRate
	logFrom := math.Log2(v.glideFrom)
	logTarget := math.Log2(v.glideTarget)
	octaveDistance := math.Abs(logTarget - logFrom)
	totalSeconds := octaveDistance * v.glideRate
	if totalSeconds <= 0 {
		v.glideActive = false
		v.glideFrom = v.glideTarget
		return v.glideTarget
	}

	step := blockSeconds / totalSeconds
	if step >= 1.0 {
		v.glideActive = false
		v.glideFrom = v.glideTarget
		return v.glideTarget
	}

	newLog := logFrom + (logTarget-logFrom)*step
	v.glideFrom = math.Exp2(newLog)
	return v.glideFrom
}

// GetSamples mixes blockSize frames of this voice's output into outLeft and
// outRight (add, not replace). It returns true once the underlying sample
// and/or amp envelope has run out.
func (v *Voice) GetSamples(blockSize int, outLeft, outRight []float32) bool {
	if !v.Active() || v.buffer == nil {
		return true
	}

	endPoint := v.buffer.EndPoint
	loopStart := v.buffer.LoopStartPoint
	loopEnd := v.buffer.LoopEndPoint
	looping := v.loopEngaged && v.buffer.IsLooping && (!v.releasing || v.loopThru)

	velocityNorm := float64(v.velocity) / 127.0
	gain := float32(v.masterVolume * velocityNorm)

	ranOut := false
	for i := 0; i < blockSize; i++ {
		if !v.ampEnv.Active() {
			ranOut = true
			break
		}

		left, right := v.readInterpolated()

		ampLevel := float32(v.ampEnv.Next())
		v.filterEnv.Next()

		sample := gain * ampLevel * left
		sampleR := gain * ampLevel * right

		if v.filterEnabled {
			sample = v.filterLeft.Process(sample)
			sampleR = v.filterRight.Process(sampleR)
		}

		outLeft[i] += sample
		outRight[i] += sampleR

		v.samplePos += v.playbackRate
		if looping && v.samplePos >= loopEnd {
			overshoot := v.samplePos - loopEnd
			v.samplePos = loopStart + overshoot
		} else if v.samplePos >= endPoint {
			ranOut = true
			break
		}
	}

	// Voice.Stop is the engine's call to make (via its retire path), not
	// this method's: a monophonic-legato voice that runs out of sample or
	// envelope still needs to stay addressable for a future
	// restart_new_note_legato, so running out never forces idle here.
	return ranOut
}

// readInterpolated reads a Hermite4-interpolated stereo sample pair at the
// voice's current fractional position. Mono buffers are duplicated to both
// channels.
func (v *Voice) readInterpolated() (left, right float32) {
	buf := v.buffer
	base := int(math.Floor(v.samplePos))
	frac := v.samplePos - float64(base)

	l := hermiteChannel(buf, 0, base, frac)
	if buf.ChannelCount >= 2 {
		r := hermiteChannel(buf, 1, base, frac)
		return float32(l), float32(r)
	}
	return float32(l), float32(l)
}

func hermiteChannel(buf *SampleBuffer, channel, base int, frac float64) float64 {
	xm1 := float64(buf.channelAt(channel, base-1))
	x0 := float64(buf.channelAt(channel, base))
	x1 := float64(buf.channelAt(channel, base+1))
	x2 := float64(buf.channelAt(channel, base+2))
	return interp.Hermite4(frac, xm1, x0, x1, x2)
}

func clampFloat(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
