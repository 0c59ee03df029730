package cache

import "time"

// Cache entry lifetimes.
const (
	TTLResult = 7 * 24 * time.Hour
	TTLRender = 7 * 24 * time.Hour
)

// keyVersion is mixed into every key. Bump it when the estimator changes its
// output for the same input.
const keyVersion = "v1"

// ResultKeyOpts holds the estimation options that affect a cached result.
type ResultKeyOpts struct {
	FillUnresolved bool `json:"fill_unresolved"`
}

// RenderKeyOpts holds the rendering options that affect a cached artifact.
type RenderKeyOpts struct {
	Format   string `json:"format"`
	Voltages bool   `json:"voltages"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ResultKey returns the key for the estimate of the network with the
	// given content hash.
	ResultKey(networkHash string, opts ResultKeyOpts) string

	// RenderKey returns the key for a rendered topology artifact.
	RenderKey(networkHash string, opts RenderKeyOpts) string
}

// DefaultKeyer produces keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(networkHash string, opts ResultKeyOpts) string {
	return hashKey("result", networkHash, opts)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(networkHash string, opts RenderKeyOpts) string {
	return hashKey("render", networkHash, opts)
}
