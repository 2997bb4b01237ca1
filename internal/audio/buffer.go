package audio

// ContextBuffer holds the samples a transcription cycle operates on: the
// trailing overlap from the previous cycle plus whatever has been appended
// since. It is owned by a single session and is not safe for concurrent use.
type ContextBuffer struct {
	samples []float32
}

func NewContextBuffer() *ContextBuffer {
	return &ContextBuffer{}
}

func (b *ContextBuffer) Append(samples []float32) {
	b.samples = append(b.samples, samples...)
}

// Samples returns a copy of the full buffer contents.
func (b *ContextBuffer) Samples() []float32 {
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// TrimTo discards everything but the newest n samples.
func (b *ContextBuffer) TrimTo(n int) {
	if n < 0 {
		n = 0
	}
	if len(b.samples) <= n {
		return
	}
	kept := make([]float32, n)
	copy(kept, b.samples[len(b.samples)-n:])
	b.samples = kept
}

func (b *ContextBuffer) Len() int {
	return len(b.samples)
}

func (b *ContextBuffer) Reset() {
	b.samples = nil
}
