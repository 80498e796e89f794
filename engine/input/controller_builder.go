package input

// ControllerBuilderOption is a functional option applied to a controller during construction via NewController.
type ControllerBuilderOption func(*controllerImpl)

// WithMoveSpeed sets the initial camera move speed in world units per second.
// Values at or below zero are ignored.
//
// Parameters:
//   - speed: the move speed to start with
//
// Returns:
//   - ControllerBuilderOption: a function that applies the move speed option to a controller
func WithMoveSpeed(speed float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if speed > 0 {
			c.moveSpeed = speed
		}
	}
}

// WithCaptureChange sets the callback invoked when mouse look starts or stops, so the
// owning window can capture or release the cursor.
//
// Parameters:
//   - callback: function receiving whether the cursor should be captured
//
// Returns:
//   - ControllerBuilderOption: a function that applies the capture callback option to a controller
func WithCaptureChange(callback func(captured bool)) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.onCaptureChange = callback
	}
}
