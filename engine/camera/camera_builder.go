package camera

import (
	"math"

	"github.com/prism-render/prism/common"
)

// CameraBuilderOption is a functional option for configuring a Camera.
type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the camera's initial world-space position.
//
// Parameters:
//   - x, y, z: the position components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = [3]float32{x, y, z}
	}
}

// WithFacing orients the camera to look along the given direction by deriving
// the equivalent yaw and pitch angles. The direction is normalized internally;
// a zero-length direction is a caller contract breach and leaves the camera
// with an undefined orientation.
//
// Parameters:
//   - dx, dy, dz: the view direction components
//
// Returns:
//   - CameraBuilderOption: a function that orients the camera
func WithFacing(dx, dy, dz float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		d := common.Normalize3([3]float32{dx, dy, dz})

		c.pitch = float32(math.Asin(float64(d[1])) * 180.0 / math.Pi)
		c.yaw = float32(math.Atan2(float64(d[2]), float64(d[0])) * 180.0 / math.Pi)

		if c.pitch > pitchLimit {
			c.pitch = pitchLimit
		}
		if c.pitch < -pitchLimit {
			c.pitch = -pitchLimit
		}
	}
}

// WithLookSensitivity sets the scale applied to mouse deltas in ApplyLookDelta.
// Values <= 0 are ignored and keep the default (0.1 degrees per count).
//
// Parameters:
//   - sensitivity: degrees of rotation per mouse count
//
// Returns:
//   - CameraBuilderOption: a function that sets the look sensitivity
func WithLookSensitivity(sensitivity float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if sensitivity > 0 {
			c.lookSensitivity = sensitivity
		}
	}
}
