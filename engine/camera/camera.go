package camera

import (
	"math"
	"sync"

	"github.com/prism-render/prism/common"
)

const (
	// fovY is the fixed vertical field of view in radians (45 degrees).
	fovY = 45.0 * (math.Pi / 180.0)
	// nearPlane and farPlane bound the projection frustum.
	nearPlane = 0.1
	farPlane  = 1000.0

	// pitchLimit keeps the pitch inside (-90, 90) degrees to avoid gimbal flip
	// when the forward vector aligns with the world up axis.
	pitchLimit = 89.0
)

// MoveMask is a bitmask of movement directions currently requested by the
// input collaborator. Directions combine freely; opposing bits cancel out.
type MoveMask uint8

const (
	// MoveForward moves along the camera's forward vector.
	MoveForward MoveMask = 1 << iota
	// MoveBack moves against the camera's forward vector.
	MoveBack
	// MoveRight strafes along the camera's right vector.
	MoveRight
	// MoveLeft strafes against the camera's right vector.
	MoveLeft
	// MoveUp moves along world +Y.
	MoveUp
	// MoveDown moves along world -Y.
	MoveDown
)

// cameraImpl is the implementation of the Camera interface.
// An FPS-style camera: world position plus yaw/pitch Euler angles in degrees,
// with up fixed to world +Y.
type cameraImpl struct {
	mu *sync.Mutex

	position [3]float32
	yaw      float32 // degrees, rotation about the world Y axis
	pitch    float32 // degrees, clamped to [-pitchLimit, pitchLimit]

	lookSensitivity float32

	// moved is set by any operation that changes position or orientation and
	// cleared by the accumulation engine once it has invalidated its history.
	moved bool
}

// Camera defines the interface for the FPS camera.
// Orientation is expressed as yaw/pitch in degrees; view and projection
// matrices are derived on demand and have no side effects.
type Camera interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - [3]float32: the position
	Position() [3]float32

	// SetPosition sets the camera's world-space position and marks the camera moved.
	//
	// Parameters:
	//   - x, y, z: the new position components
	SetPosition(x, y, z float32)

	// Yaw returns the rotation about the world Y axis in degrees.
	//
	// Returns:
	//   - float32: yaw in degrees
	Yaw() float32

	// Pitch returns the elevation angle in degrees, always within [-89, 89].
	//
	// Returns:
	//   - float32: pitch in degrees
	Pitch() float32

	// Forward returns the unit-length view direction derived from yaw and pitch.
	//
	// Returns:
	//   - [3]float32: the forward vector (unit length)
	Forward() [3]float32

	// ApplyLookDelta rotates the camera by a mouse delta scaled by the look
	// sensitivity. Pitch is clamped to [-89, 89] degrees. Marks the camera
	// moved iff the delta is non-zero.
	//
	// Parameters:
	//   - dx: horizontal mouse delta (positive = look right)
	//   - dy: vertical mouse delta (positive = look down)
	ApplyLookDelta(dx, dy float32)

	// ApplyMove translates the camera along its local basis vectors gated by
	// the mask bits. The accumulated direction is normalized (a zero vector
	// stays zero) and scaled by speed*dt. Marks the camera moved iff the
	// accumulated direction is non-zero.
	//
	// Parameters:
	//   - mask: the movement directions currently requested
	//   - dt: elapsed time in seconds
	//   - speed: movement speed in world units per second
	ApplyMove(mask MoveMask, dt, speed float32)

	// ViewMatrix returns the 4x4 view matrix (column-major) looking from the
	// camera position along its forward vector with up fixed to world +Y.
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the 4x4 perspective projection matrix
	// (column-major) for the given aspect ratio, with a 45 degree vertical
	// field of view and near/far planes of 0.1/1000.
	//
	// Parameters:
	//   - aspect: viewport aspect ratio (width/height)
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix(aspect float32) [16]float32

	// Moved reports whether the camera has changed position or orientation
	// since the flag was last cleared.
	//
	// Returns:
	//   - bool: true if the camera moved
	Moved() bool

	// ClearMoved clears the moved flag. Called by the accumulation engine
	// after it has reacted to the movement.
	ClearMoved()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera at the origin facing -Z with the provided options.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:              &sync.Mutex{},
		yaw:             -90.0, // facing -Z
		lookSensitivity: 0.1,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) SetPosition(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position != [3]float32{x, y, z} {
		c.moved = true
	}
	c.position = [3]float32{x, y, z}
}

func (c *cameraImpl) Yaw() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yaw
}

func (c *cameraImpl) Pitch() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pitch
}

func (c *cameraImpl) Forward() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forward()
}

func (c *cameraImpl) ApplyLookDelta(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dx == 0 && dy == 0 {
		return
	}

	c.yaw += dx * c.lookSensitivity
	c.pitch -= dy * c.lookSensitivity

	if c.pitch > pitchLimit {
		c.pitch = pitchLimit
	}
	if c.pitch < -pitchLimit {
		c.pitch = -pitchLimit
	}

	c.moved = true
}

func (c *cameraImpl) ApplyMove(mask MoveMask, dt, speed float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	forward := c.forward()
	right := common.Normalize3(common.Cross3(forward, [3]float32{0, 1, 0}))

	var delta [3]float32
	if mask&MoveForward != 0 {
		delta[0] += forward[0]
		delta[1] += forward[1]
		delta[2] += forward[2]
	}
	if mask&MoveBack != 0 {
		delta[0] -= forward[0]
		delta[1] -= forward[1]
		delta[2] -= forward[2]
	}
	if mask&MoveRight != 0 {
		delta[0] += right[0]
		delta[2] += right[2]
	}
	if mask&MoveLeft != 0 {
		delta[0] -= right[0]
		delta[2] -= right[2]
	}
	if mask&MoveUp != 0 {
		delta[1] += 1
	}
	if mask&MoveDown != 0 {
		delta[1] -= 1
	}

	if delta == [3]float32{} {
		return
	}

	// Normalize so diagonal movement is not faster than axial movement.
	delta = common.Normalize3(delta)

	step := speed * dt
	c.position[0] += delta[0] * step
	c.position[1] += delta[1] * step
	c.position[2] += delta[2] * step

	c.moved = true
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.forward()
	var view [16]float32
	common.LookAt(view[:],
		c.position[0], c.position[1], c.position[2],
		c.position[0]+f[0], c.position[1]+f[1], c.position[2]+f[2],
		0, 1, 0,
	)
	return view
}

func (c *cameraImpl) ProjectionMatrix(aspect float32) [16]float32 {
	var proj [16]float32
	common.Perspective(proj[:], fovY, aspect, nearPlane, farPlane)
	return proj
}

func (c *cameraImpl) Moved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moved
}

func (c *cameraImpl) ClearMoved() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moved = false
}

// forward derives the unit view direction from yaw and pitch.
// Caller must hold the mutex.
func (c *cameraImpl) forward() [3]float32 {
	yawRad := float64(c.yaw) * math.Pi / 180.0
	pitchRad := float64(c.pitch) * math.Pi / 180.0

	return common.Normalize3([3]float32{
		float32(math.Cos(yawRad) * math.Cos(pitchRad)),
		float32(math.Sin(pitchRad)),
		float32(math.Sin(yawRad) * math.Cos(pitchRad)),
	})
}
