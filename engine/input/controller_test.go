package input

import (
	"testing"

	"github.com/prism-render/prism/common"
	"github.com/prism-render/prism/engine/camera"
)

func TestQueuePushDrainOrder(t *testing.T) {
	q := NewQueue()

	q.Push(ResetCommand{})
	q.Push(LookCommand{DX: 1})
	q.Push(ToggleAccumulateCommand{})

	cmds := q.Drain()
	if len(cmds) != 3 {
		t.Fatalf("Expected 3 commands, got %d", len(cmds))
	}
	if _, ok := cmds[0].(ResetCommand); !ok {
		t.Errorf("Expected ResetCommand first, got %T", cmds[0])
	}
	if look, ok := cmds[1].(LookCommand); !ok || look.DX != 1 {
		t.Errorf("Expected LookCommand{DX:1} second, got %#v", cmds[1])
	}
	if _, ok := cmds[2].(ToggleAccumulateCommand); !ok {
		t.Errorf("Expected ToggleAccumulateCommand third, got %T", cmds[2])
	}

	if got := q.Len(); got != 0 {
		t.Errorf("Expected empty queue after drain, got %d", got)
	}
	if cmds := q.Drain(); len(cmds) != 0 {
		t.Errorf("Second drain should be empty, got %d commands", len(cmds))
	}
}

func TestControllerEdgeKeysPushOnce(t *testing.T) {
	q := NewQueue()
	c := NewController(q)

	// Key repeat delivers repeated down events; only the press edge counts.
	c.HandleKeyDown(common.KeyR)
	c.HandleKeyDown(common.KeyR)
	c.HandleKeyDown(common.KeyR)

	cmds := q.Drain()
	if len(cmds) != 1 {
		t.Fatalf("Expected 1 command from repeated key down, got %d", len(cmds))
	}
	if _, ok := cmds[0].(ResetCommand); !ok {
		t.Errorf("Expected ResetCommand, got %T", cmds[0])
	}

	// Release then press again produces a new edge.
	c.HandleKeyUp(common.KeyR)
	c.HandleKeyDown(common.KeyR)
	if cmds := q.Drain(); len(cmds) != 1 {
		t.Errorf("Expected new edge after key release, got %d commands", len(cmds))
	}
}

func TestControllerToggleKey(t *testing.T) {
	q := NewQueue()
	c := NewController(q)

	c.HandleKeyDown(common.KeyT)
	cmds := q.Drain()
	if len(cmds) != 1 {
		t.Fatalf("Expected 1 command, got %d", len(cmds))
	}
	if _, ok := cmds[0].(ToggleAccumulateCommand); !ok {
		t.Errorf("Expected ToggleAccumulateCommand, got %T", cmds[0])
	}
}

func TestControllerMouseLook(t *testing.T) {
	q := NewQueue()
	c := NewController(q)

	// Motion without the right button held is ignored.
	c.HandleMouseMove(100, 100)
	if got := q.Len(); got != 0 {
		t.Fatalf("Expected no commands without mouse look, got %d", got)
	}

	c.HandleRightMouseDown(100, 100)
	c.HandleMouseMove(110, 95)

	cmds := q.Drain()
	if len(cmds) != 1 {
		t.Fatalf("Expected 1 look command, got %d", len(cmds))
	}
	look := cmds[0].(LookCommand)
	if look.DX != 10 || look.DY != -5 {
		t.Errorf("Expected delta (10, -5), got (%f, %f)", look.DX, look.DY)
	}

	c.HandleRightMouseUp(110, 95)
	c.HandleMouseMove(200, 200)
	if got := q.Len(); got != 0 {
		t.Errorf("Expected no commands after mouse look ends, got %d", got)
	}
}

func TestControllerCaptureCallback(t *testing.T) {
	var captured []bool
	q := NewQueue()
	c := NewController(q, WithCaptureChange(func(on bool) {
		captured = append(captured, on)
	}))

	c.HandleRightMouseDown(0, 0)
	c.HandleRightMouseUp(0, 0)

	if len(captured) != 2 || !captured[0] || captured[1] {
		t.Errorf("Expected capture sequence [true false], got %v", captured)
	}
}

func TestControllerSample(t *testing.T) {
	tests := []struct {
		name     string
		keys     []uint32
		expected camera.MoveMask
	}{
		{"no keys pushes nothing", nil, 0},
		{"forward", []uint32{common.KeyW}, camera.MoveForward},
		{"diagonal", []uint32{common.KeyW, common.KeyD}, camera.MoveForward | camera.MoveRight},
		{"vertical", []uint32{common.KeySpace, common.KeyLeftShift}, camera.MoveUp | camera.MoveDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue()
			c := NewController(q)
			for _, k := range tt.keys {
				c.HandleKeyDown(k)
			}

			c.Sample(0.016)

			cmds := q.Drain()
			if tt.expected == 0 {
				if len(cmds) != 0 {
					t.Fatalf("Expected no commands, got %d", len(cmds))
				}
				return
			}
			if len(cmds) != 1 {
				t.Fatalf("Expected 1 move command, got %d", len(cmds))
			}
			move := cmds[0].(MoveCommand)
			if move.Mask != tt.expected {
				t.Errorf("Expected mask %b, got %b", tt.expected, move.Mask)
			}
			if move.DT != 0.016 {
				t.Errorf("Expected dt 0.016, got %f", move.DT)
			}
		})
	}
}

func TestControllerSlowModifier(t *testing.T) {
	q := NewQueue()
	c := NewController(q)

	c.HandleKeyDown(common.KeyW)
	c.HandleKeyDown(common.KeyLeftControl)
	c.Sample(0.016)

	move := q.Drain()[0].(MoveCommand)
	if move.Speed != slowMoveSpeed {
		t.Errorf("Expected slow speed %f with Ctrl held, got %f", float32(slowMoveSpeed), move.Speed)
	}
}

func TestControllerScrollSpeed(t *testing.T) {
	q := NewQueue()
	c := NewController(q)

	base := c.MoveSpeed()
	c.HandleScroll(2)
	if got := c.MoveSpeed(); got != base+2*scrollSpeedStep {
		t.Errorf("Expected speed %f after scroll up, got %f", base+2*scrollSpeedStep, got)
	}

	// Scrolling far down clamps at the minimum, never zero or negative.
	c.HandleScroll(-1000)
	if got := c.MoveSpeed(); got != minMoveSpeed {
		t.Errorf("Expected clamped speed %f, got %f", float32(minMoveSpeed), got)
	}
}
