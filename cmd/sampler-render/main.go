package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/cwbudde/algo-sampler/preset"
	"github.com/cwbudde/algo-sampler/sampler"
)

func main() {
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when stereo block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds when using -decay-dbfs")
	releaseAfter := flag.Float64("release-after", 0.12, "Send the note-off after this many seconds in auto-decay mode")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	presetPath := flag.String("preset", "assets/presets/default.json", "Preset JSON file path")
	output := flag.String("output", "output.wav", "Output WAV file path")
	irPath := flag.String("ir", "", "Optional impulse-response WAV file to apply as a post-render convolution send")
	irMix := flag.Float64("ir-mix", 1.0, "Wet/dry mix for -ir, in [0,1]; ignored if -ir is not set")
	flag.Parse()

	numChannels := 2 // stereo

	s, err := preset.LoadJSON(*presetPath, float64(*sampleRate))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
		os.Exit(1)
	}

	fmt.Printf("Rendering note %d, velocity %d, for %.2f seconds at %d Hz (preset: %s)...\n", *note, *velocity, *duration, *sampleRate, *presetPath)

	var ir *sampler.ConvolutionSend
	if *irPath != "" {
		ir = sampler.NewConvolutionSend(*sampleRate)
		if err := ir.SetIRFromWAV(*irPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading impulse response %q: %v\n", *irPath, err)
			os.Exit(1)
		}
		ir.SetMix(float32(*irMix))
		fmt.Printf("Applying convolution send from %s (mix=%.2f)\n", *irPath, *irMix)
	}

	s.PlayNote(*note, *velocity)

	const blockSize = 128
	autoStop := !math.IsInf(*decayDBFS, 1)

	left := make([]float32, blockSize)
	right := make([]float32, blockSize)

	renderBlock := func(frames int) []float32 {
		for i := 0; i < frames; i++ {
			left[i] = 0
			right[i] = 0
		}
		s.Render(frames, left[:frames], right[:frames])

		outLeft, outRight := left[:frames], right[:frames]
		if ir != nil {
			outLeft, outRight = ir.ProcessStereo(outLeft, outRight)
		}

		interleaved := make([]float32, frames*numChannels)
		for i := 0; i < frames; i++ {
			interleaved[i*2] = outLeft[i]
			interleaved[i*2+1] = outRight[i]
		}
		return interleaved
	}

	var totalFrames int
	var samples []float32
	if autoStop {
		policy := newDecayPolicy(*sampleRate, blockSize, *decayDBFS, *minDuration, *maxDuration, *releaseAfter, *decayHoldBlocks)
		totalFrames, samples = policy.run(renderBlock, func() { s.StopNote(*note, false) })
		fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n", totalFrames, float64(totalFrames)/float64(*sampleRate), *decayDBFS)
	} else {
		totalFrames = int(float64(*sampleRate) * (*duration))
		if totalFrames < 1 {
			totalFrames = 1
		}
		samples = runFixedDuration(totalFrames, blockSize, renderBlock)
	}

	file, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, *sampleRate, 16, numChannels, 1)
	defer encoder.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  *sampleRate,
			NumChannels: numChannels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}

	if err := encoder.Write(buf); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, totalFrames)
}
