package stats

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithHeadToHeadLength sets how many recent results the head-to-head
// sequence shows. Values below the minimum are raised to it.
func WithHeadToHeadLength(n int) Option {
	return func(a *Aggregator) {
		a.h2hLength = max(n, MinHeadToHeadLength)
	}
}
