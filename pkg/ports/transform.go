package ports

import "github.com/user/clipset/pkg/tensor"

// SpatialTransform is a pure spatial operation on a video tensor.
// Implementations carry no state beyond their configured policy.
type SpatialTransform interface {
	// Apply transforms a (C,T,H,W) tensor into a (C,T,H',W') tensor.
	Apply(v *tensor.Video) (*tensor.Video, error)
}
