package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving each tenant or
// environment its own namespace in a shared backend:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "layermap:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means the
// default one.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// DocumentKey returns the prefixed document key.
func (k *ScopedKeyer) DocumentKey(contentHash, codec string) string {
	return k.prefix + k.inner.DocumentKey(contentHash, codec)
}

// RemapKey returns the prefixed remap key.
func (k *ScopedKeyer) RemapKey(sourceHash string, opts RemapKeyOpts) string {
	return k.prefix + k.inner.RemapKey(sourceHash, opts)
}
