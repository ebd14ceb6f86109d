package cache

import (
	"fmt"
)

// Keyer builds cache keys. Keys are content addressed: equal inputs always
// produce equal keys and any changed input produces a different key.
type Keyer interface {
	// DocumentKey identifies a parsed document by the hash of its bytes and
	// the codec that parsed it.
	DocumentKey(contentHash, codec string) string

	// RemapKey identifies one remap: the source document's content hash,
	// the source and target container rectangles and the strategy hash
	// ("" without a strategy).
	RemapKey(sourceHash string, opts RemapKeyOpts) string
}

// RemapKeyOpts holds everything besides the source document that determines
// a remap result.
type RemapKeyOpts struct {
	SourceContainer string     `json:"source_container"`
	TargetContainer string     `json:"target_container"`
	SourceRect      [4]float64 `json:"source_rect"`
	TargetRect      [4]float64 `json:"target_rect"`
	StrategyHash    string     `json:"strategy_hash,omitempty"`
}

// DefaultKeyer is the standard key layout ("doc:<hash>", "remap:<hash>").
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DocumentKey returns "doc:<codec>:<contentHash>".
func (DefaultKeyer) DocumentKey(contentHash, codec string) string {
	return fmt.Sprintf("doc:%s:%s", codec, contentHash)
}

// RemapKey hashes the source hash and options into "remap:<sha256>".
func (DefaultKeyer) RemapKey(sourceHash string, opts RemapKeyOpts) string {
	return hashKey("remap", sourceHash, opts)
}

var _ Keyer = DefaultKeyer{}
