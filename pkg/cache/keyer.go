package cache

// Keyer builds cache keys.
type Keyer interface {
	// PNGKey returns the key for a PNG rendered from the SVG with the given
	// content hash.
	PNGKey(svgHash string, opts PNGKeyOpts) string
}

// PNGKeyOpts are the render settings that change the PNG produced for a
// given SVG.
type PNGKeyOpts struct {
	Backend       string  `json:"backend"`
	Scale         float64 `json:"scale,omitempty"`
	DefaultWidth  int     `json:"default_width,omitempty"`
	DefaultHeight int     `json:"default_height,omitempty"`
	Strict        bool    `json:"strict,omitempty"`
}

// DefaultKeyer produces keys of the form "png:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PNGKey hashes the SVG hash together with the render options.
func (DefaultKeyer) PNGKey(svgHash string, opts PNGKeyOpts) string {
	return hashKey("png", svgHash, opts)
}
