package input

import (
	"sync"

	"github.com/prism-render/prism/common"
	"github.com/prism-render/prism/engine/camera"
)

const (
	// defaultMoveSpeed is the camera translation speed in world units per second.
	defaultMoveSpeed = 5.0

	// slowMoveSpeed is the translation speed while a Ctrl key is held.
	slowMoveSpeed = 1.0

	// minMoveSpeed bounds scroll wheel speed adjustment from below.
	minMoveSpeed = 0.5

	// scrollSpeedStep is the speed change per scroll wheel notch.
	scrollSpeedStep = 0.5
)

// controllerImpl is the unexported implementation of Controller.
type controllerImpl struct {
	mu *sync.Mutex

	queue *Queue

	// keysDown tracks currently held keys by virtual key code so Sample can build a move
	// mask and so press edges can be distinguished from key repeat events.
	keysDown map[uint32]bool

	// mouseLook is true while the right mouse button is held.
	mouseLook bool

	// lastX, lastY hold the last cursor position seen while mouse look is active.
	lastX, lastY int32
	hasLast      bool

	// moveSpeed is the current camera speed, adjustable with the scroll wheel.
	moveSpeed float32

	// onCaptureChange is invoked when mouse look starts or stops so the window can
	// capture or release the cursor.
	onCaptureChange func(captured bool)
}

// Controller translates raw window events into Commands on a Queue. Key and mouse
// handlers are wired as window callbacks on the message loop thread; Sample is called
// from the fixed-rate tick to convert held keys into a move command.
type Controller interface {
	// Queue returns the command queue this controller pushes to.
	//
	// Returns:
	//   - *Queue: the command queue
	Queue() *Queue

	// MoveSpeed returns the current camera move speed in world units per second.
	//
	// Returns:
	//   - float32: the move speed
	MoveSpeed() float32

	// HandleKeyDown records a key press. Press edges on the reset and accumulate toggle
	// keys push their commands immediately; repeats are ignored for edges.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	HandleKeyDown(keyCode uint32)

	// HandleKeyUp records a key release.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	HandleKeyUp(keyCode uint32)

	// HandleMouseMove pushes a look command from the cursor delta while mouse look is
	// active. The first move after mouse look starts only seeds the reference position.
	//
	// Parameters:
	//   - x, y: the cursor position in pixels
	HandleMouseMove(x, y int32)

	// HandleRightMouseDown starts mouse look and requests cursor capture.
	//
	// Parameters:
	//   - x, y: the cursor position in pixels
	HandleRightMouseDown(x, y int32)

	// HandleRightMouseUp stops mouse look and releases the cursor.
	//
	// Parameters:
	//   - x, y: the cursor position in pixels
	HandleRightMouseUp(x, y int32)

	// HandleScroll adjusts the move speed by the scroll delta, bounded from below.
	//
	// Parameters:
	//   - delta: the scroll delta, positive is up
	HandleScroll(delta float32)

	// Sample converts the currently held keys into a single move command for this tick.
	// No command is pushed when no movement key is held.
	//
	// Parameters:
	//   - dt: the tick duration in seconds
	Sample(dt float32)
}

// Compile-time check that controllerImpl implements Controller
var _ Controller = &controllerImpl{}

// NewController creates a Controller pushing to the given queue.
//
// Parameters:
//   - queue: the command queue to push to
//   - options: a variadic list of options to configure the controller
//
// Returns:
//   - Controller: a new Controller instance
func NewController(queue *Queue, options ...ControllerBuilderOption) Controller {
	c := &controllerImpl{
		mu:        &sync.Mutex{},
		queue:     queue,
		keysDown:  make(map[uint32]bool),
		moveSpeed: defaultMoveSpeed,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *controllerImpl) Queue() *Queue {
	return c.queue
}

func (c *controllerImpl) MoveSpeed() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moveSpeed
}

func (c *controllerImpl) HandleKeyDown(keyCode uint32) {
	c.mu.Lock()
	edge := !c.keysDown[keyCode]
	c.keysDown[keyCode] = true
	c.mu.Unlock()

	if !edge {
		return
	}
	switch keyCode {
	case common.KeyR:
		c.queue.Push(ResetCommand{})
	case common.KeyT:
		c.queue.Push(ToggleAccumulateCommand{})
	}
}

func (c *controllerImpl) HandleKeyUp(keyCode uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keysDown, keyCode)
}

func (c *controllerImpl) HandleMouseMove(x, y int32) {
	c.mu.Lock()
	if !c.mouseLook {
		c.mu.Unlock()
		return
	}
	if !c.hasLast {
		c.lastX, c.lastY = x, y
		c.hasLast = true
		c.mu.Unlock()
		return
	}
	dx := float32(x - c.lastX)
	dy := float32(y - c.lastY)
	c.lastX, c.lastY = x, y
	c.mu.Unlock()

	if dx != 0 || dy != 0 {
		c.queue.Push(LookCommand{DX: dx, DY: dy})
	}
}

func (c *controllerImpl) HandleRightMouseDown(x, y int32) {
	c.mu.Lock()
	c.mouseLook = true
	c.lastX, c.lastY = x, y
	c.hasLast = true
	capture := c.onCaptureChange
	c.mu.Unlock()

	if capture != nil {
		capture(true)
	}
}

func (c *controllerImpl) HandleRightMouseUp(x, y int32) {
	c.mu.Lock()
	c.mouseLook = false
	c.hasLast = false
	capture := c.onCaptureChange
	c.mu.Unlock()

	if capture != nil {
		capture(false)
	}
}

func (c *controllerImpl) HandleScroll(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moveSpeed += delta * scrollSpeedStep
	if c.moveSpeed < minMoveSpeed {
		c.moveSpeed = minMoveSpeed
	}
}

func (c *controllerImpl) Sample(dt float32) {
	c.mu.Lock()
	var mask camera.MoveMask
	if c.keysDown[common.KeyW] {
		mask |= camera.MoveForward
	}
	if c.keysDown[common.KeyS] {
		mask |= camera.MoveBack
	}
	if c.keysDown[common.KeyD] {
		mask |= camera.MoveRight
	}
	if c.keysDown[common.KeyA] {
		mask |= camera.MoveLeft
	}
	if c.keysDown[common.KeySpace] {
		mask |= camera.MoveUp
	}
	if c.keysDown[common.KeyLeftShift] || c.keysDown[common.KeyRightShift] {
		mask |= camera.MoveDown
	}

	speed := c.moveSpeed
	if c.keysDown[common.KeyLeftControl] || c.keysDown[common.KeyRightControl] {
		speed = slowMoveSpeed
	}
	c.mu.Unlock()

	if mask == 0 {
		return
	}
	c.queue.Push(MoveCommand{Mask: mask, DT: dt, Speed: speed})
}
