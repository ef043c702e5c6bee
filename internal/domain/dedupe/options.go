package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithCapacity pre-sizes the seen set.
func WithCapacity(n int) Option {
	return func(d *inMemoryDeduper) {
		if n > 0 {
			d.capacity = n
		}
	}
}

// WithCaseFolding makes keys compare case-insensitively.
func WithCaseFolding() Option {
	return func(d *inMemoryDeduper) {
		d.fold = true
	}
}
