package entry

// Sampler accumulates the deduplicated, time-ordered price observations
// of one evaluation loop. A new observation is appended only when it
// differs from the last appended value, so a stalled pool does not pad
// the series with repeats. Discard the sampler when the loop ends.
type Sampler struct {
	samples []float64
}

// NewSampler creates an empty sampler.
func NewSampler() *Sampler {
	return &Sampler{}
}

// Observe appends the price if it differs from the last appended value
// and reports whether it was appended.
func (s *Sampler) Observe(price float64) bool {
	if n := len(s.samples); n > 0 && s.samples[n-1] == price {
		return false
	}
	s.samples = append(s.samples, price)
	return true
}

// Samples returns the observed series, oldest first.
func (s *Sampler) Samples() []float64 {
	return s.samples
}

// Len returns the number of distinct observations.
func (s *Sampler) Len() int {
	return len(s.samples)
}
