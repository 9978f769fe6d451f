package engine

// ProgressSink receives progress updates during long-running passes.
// Percent is 0..100; the sink is called once per processed entry plus once
// at completion with percent=100. It is a side-effecting callback for UIs
// and has no bearing on the engine's correctness.
type ProgressSink interface {
	Progress(percent int, message string)
}

// ProgressFunc adapts a plain function to the ProgressSink interface.
type ProgressFunc func(percent int, message string)

func (f ProgressFunc) Progress(percent int, message string) { f(percent, message) }

// NopProgress discards all progress updates. Use when no UI is attached.
var NopProgress = ProgressFunc(func(int, string) {})

// percentOf converts step-of-total to a 0..100 percentage.
func percentOf(step, total int) int {
	if total <= 0 {
		return 100
	}
	return step * 100 / total
}
