package jobs

// SetLookPath swaps the executable resolver so tests can simulate
// missing toolchains.
func (b *Builder) SetLookPath(fn func(file string) (string, error)) {
	b.lookPath = fn
}
