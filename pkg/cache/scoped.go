package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one redis instance without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "svg2png:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PNGKey generates a prefixed key for rendered PNG caching.
func (k *ScopedKeyer) PNGKey(svgHash string, opts PNGKeyOpts) string {
	return k.prefix + k.inner.PNGKey(svgHash, opts)
}
