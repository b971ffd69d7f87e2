// Package input provides the normalized human input consumed by the
// control loop.
package input

// Input is sampled once per tick.
type Input struct {
	// Direction is forward (positive) or backward (negative), in [-1, 1].
	Direction float64
	// Steering turns left (positive) or right (negative), in [-1, 1].
	Steering float64
	// Horn is requested since the last sample.
	Horn bool
	// Stop requests the control loop to exit.
	Stop bool
}

// Source provides Input.
type Source interface {
	Input() Input
}

// SourceFunc is the func form of Source.
type SourceFunc func() Input

// Input implements Source.
func (f SourceFunc) Input() Input {
	return f()
}

// Idle is a Source which never moves.
var Idle Source = SourceFunc(func() Input { return Input{} })

// Normalize maps a raw axis value to [-1, 1].
func Normalize(raw, max int) float64 {
	if max <= 0 {
		return 0
	}
	v := float64(raw) / float64(max)
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
