package audio

import (
	"math"
	"testing"
)

func TestResample_SameRate(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
	output := Resample(input, 16000, 16000)
	if len(output) != len(input) {
		t.Errorf("expected same length %d, got %d", len(input), len(output))
	}
	for i := range input {
		if output[i] != input[i] {
			t.Errorf("sample %d: expected %f, got %f", i, input[i], output[i])
		}
	}
}

func TestResample_Upsample(t *testing.T) {
	input := []float32{0.0, 1.0}
	output := Resample(input, 8000, 16000)
	expectedLen := 4
	if len(output) != expectedLen {
		t.Errorf("expected length %d, got %d", expectedLen, len(output))
	}
	if math.Abs(float64(output[0])) > 0.01 {
		t.Errorf("first sample should be ~0, got %f", output[0])
	}
	if math.Abs(float64(output[len(output)-1]-1.0)) > 0.01 {
		t.Errorf("last sample should be ~1, got %f", output[len(output)-1])
	}
}

func TestResample_Downsample(t *testing.T) {
	input := []float32{0.0, 0.25, 0.5, 0.75, 1.0}
	output := Resample(input, 20000, 10000)
	expectedLen := 3
	if len(output) != expectedLen {
		t.Errorf("expected length %d, got %d", expectedLen, len(output))
	}
}

func TestFloat32ToInt16_Clamping(t *testing.T) {
	input := []float32{-2.0, -1.0, 0.0, 1.0, 2.0}
	output := Float32ToInt16(input)
	if output[0] != -32767 {
		t.Errorf("expected clamp to -32767, got %d", output[0])
	}
	if output[2] != 0 {
		t.Errorf("expected 0, got %d", output[2])
	}
	if output[4] != 32767 {
		t.Errorf("expected clamp to 32767, got %d", output[4])
	}
}

func TestFloat32Bytes_RoundTrip(t *testing.T) {
	input := []float32{-1.0, -0.5, 0.0, 0.25, 1.0}
	data := Float32ToBytes(input)
	if len(data) != len(input)*4 {
		t.Fatalf("expected %d bytes, got %d", len(input)*4, len(data))
	}
	output := BytesToFloat32(data)
	if len(output) != len(input) {
		t.Fatalf("expected %d samples, got %d", len(input), len(output))
	}
	for i := range input {
		if output[i] != input[i] {
			t.Errorf("sample %d: expected %f, got %f", i, input[i], output[i])
		}
	}
}

func TestBytesToFloat32_TruncatedInput(t *testing.T) {
	data := Float32ToBytes([]float32{0.5, 0.25})
	output := BytesToFloat32(data[:7])
	if len(output) != 1 {
		t.Errorf("expected 1 whole sample from 7 bytes, got %d", len(output))
	}
}
