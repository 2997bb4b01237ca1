package vad

import (
	"math"

	"github.com/eleven-am/voicestream/internal/audio"
)

// Detector classifies a single audio frame as speech or non-speech.
type Detector interface {
	IsSpeech(frame []float32) bool
}

// Aggressiveness levels follow the webrtcvad convention: 0 is the most
// permissive, 3 the most aggressive about rejecting non-speech.
const (
	AggressivenessQuality = iota
	AggressivenessLowBitrate
	AggressivenessAggressive
	AggressivenessVeryAggressive
)

var energyThresholds = [...]float64{200, 400, 700, 1000}

// EnergyDetector is an RMS-energy detector operating on the int16 quantization
// of the captured float32 frame. Quantization below 16 bits of precision is
// lossy and intentional.
type EnergyDetector struct {
	threshold float64
}

func NewEnergyDetector(aggressiveness int) *EnergyDetector {
	if aggressiveness < AggressivenessQuality || aggressiveness > AggressivenessVeryAggressive {
		aggressiveness = AggressivenessVeryAggressive
	}
	return &EnergyDetector{threshold: energyThresholds[aggressiveness]}
}

func (d *EnergyDetector) IsSpeech(frame []float32) bool {
	if len(frame) == 0 {
		return false
	}

	var energy float64
	for _, q := range audio.Float32ToInt16(frame) {
		energy += float64(q) * float64(q)
	}
	rms := math.Sqrt(energy / float64(len(frame)))

	return rms >= d.threshold
}

// Threshold reports the RMS level above which frames classify as speech, on
// the int16 sample scale.
func (d *EnergyDetector) Threshold() float64 {
	return d.threshold
}
