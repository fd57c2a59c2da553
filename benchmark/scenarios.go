package benchmark

import "fmt"

// Scenario is one latency measurement at a fixed batch size.
type Scenario struct {
	Name      string `json:"name"       yaml:"name"`
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
}

// Single reports whether the scenario is the single-image run.
func (s Scenario) Single() bool {
	return s.Name == SingleInference
}

// SingleInference labels the one-image scenario.
const SingleInference = "single_inference"

// Scenarios returns the four fixed scenarios for a base batch size: one
// image, then 1x, 2x and 4x the base.
func Scenarios(base int) []Scenario {
	out := []Scenario{{Name: SingleInference, BatchSize: 1}}
	for _, mult := range []int{1, 2, 4} {
		out = append(out, Scenario{
			Name:      fmt.Sprintf("batch_inference_%dx", mult),
			BatchSize: base * mult,
		})
	}
	return out
}
