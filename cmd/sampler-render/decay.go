package main

import "math"

// decayPolicy configures auto-stop-on-silence rendering: render blocks
// until the stereo RMS of the engine's output has stayed below a
// threshold for a run of consecutive blocks, bounded by a minimum and
// maximum total frame count and with a note-release triggered at a fixed
// offset into the render.
type decayPolicy struct {
	blockSize       int
	minFrames       int
	maxFrames       int
	releaseAtFrame  int
	thresholdLinear float64
	holdBlocks      int
}

// newDecayPolicy derives a decayPolicy's frame-domain bounds from the
// render's sample rate and the caller's second-denominated flags.
func newDecayPolicy(sampleRate, blockSize int, decayDBFS, minDurationSec, maxDurationSec, releaseAfterSec float64, holdBlocks int) decayPolicy {
	minFrames := int(float64(sampleRate) * minDurationSec)
	maxFrames := int(float64(sampleRate) * maxDurationSec)
	if maxFrames < minFrames {
		maxFrames = minFrames
	}
	if maxFrames < 1 {
		maxFrames = blockSize
	}
	releaseAtFrame := int(float64(sampleRate) * releaseAfterSec)
	if releaseAtFrame < 0 {
		releaseAtFrame = 0
	}
	if holdBlocks < 1 {
		holdBlocks = 1
	}
	return decayPolicy{
		blockSize:       blockSize,
		minFrames:       minFrames,
		maxFrames:       maxFrames,
		releaseAtFrame:  releaseAtFrame,
		thresholdLinear: math.Pow(10.0, decayDBFS/20.0),
		holdBlocks:      holdBlocks,
	}
}

// silenceRun is the hysteresis a decayPolicy uses to decide decay has truly
// settled — a single quiet block in an otherwise-sounding release tail
// must not end the render early.
type silenceRun struct {
	count int
}

// observe records one block's RMS against threshold and reports whether
// holdBlocks consecutive below-threshold observations have now occurred.
func (s *silenceRun) observe(rms, threshold float64, holdBlocks int) (settled bool) {
	if rms < threshold {
		s.count++
		return s.count >= holdBlocks
	}
	s.count = 0
	return false
}

// run renders under the policy: it calls renderBlock in blockSize chunks
// (the final chunk may be shorter), invokes release exactly once after
// crossing releaseAtFrame, and stops either once holdBlocks consecutive
// blocks fall below the decay threshold (after minFrames have rendered)
// or once maxFrames is reached, whichever comes first.
func (p decayPolicy) run(renderBlock func(frames int) []float32, release func()) (framesRendered int, samples []float32) {
	samples = make([]float32, 0, p.minFrames*2)
	var run silenceRun
	released := false

	for framesRendered < p.maxFrames {
		framesToRender := p.blockSize
		if framesRendered+framesToRender > p.maxFrames {
			framesToRender = p.maxFrames - framesRendered
		}

		if !released && framesRendered >= p.releaseAtFrame {
			release()
			released = true
		}

		block := renderBlock(framesToRender)
		samples = append(samples, block...)
		framesRendered += framesToRender

		if framesRendered >= p.minFrames && run.observe(stereoRMS(block), p.thresholdLinear, p.holdBlocks) {
			break
		}
	}
	return framesRendered, samples
}

// runFixedDuration renders exactly totalFrames in blockSize chunks, with
// no decay detection or release gating — the non-auto-stop path.
func runFixedDuration(totalFrames, blockSize int, renderBlock func(frames int) []float32) []float32 {
	samples := make([]float32, 0, totalFrames*2)
	framesRendered := 0
	for framesRendered < totalFrames {
		framesToRender := blockSize
		if framesRendered+framesToRender > totalFrames {
			framesToRender = totalFrames - framesRendered
		}
		samples = append(samples, renderBlock(framesToRender)...)
		framesRendered += framesToRender
	}
	return samples
}

func stereoRMS(interleaved []float32) float64 {
	if len(interleaved) == 0 {
		return 0
	}
	var sum float64
	for _, s := range interleaved {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(interleaved)))
}
