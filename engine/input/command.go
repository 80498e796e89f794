package input

import (
	"sync"

	"github.com/prism-render/prism/engine/camera"
	"github.com/prism-render/prism/engine/scene"
)

// Command is a closed set of input-driven mutations applied by the orchestrator at the
// top of each frame, before any per-frame state is computed.
type Command interface {
	isCommand()
}

// LookCommand rotates the camera by a raw mouse delta in pixels.
type LookCommand struct {
	DX, DY float32
}

// MoveCommand translates the camera along the directions selected by Mask.
type MoveCommand struct {
	Mask  camera.MoveMask
	DT    float32
	Speed float32
}

// SceneEditCommand applies an arbitrary edit to the scene store. Structural edits
// (AddSphere, AddMaterial) mark the store dirty and are reconciled the same frame.
type SceneEditCommand struct {
	Edit func(s scene.Scene)
}

// ResetCommand requests an explicit accumulation reset.
type ResetCommand struct{}

// ToggleAccumulateCommand flips progressive accumulation on or off.
type ToggleAccumulateCommand struct{}

func (LookCommand) isCommand()             {}
func (MoveCommand) isCommand()             {}
func (SceneEditCommand) isCommand()        {}
func (ResetCommand) isCommand()            {}
func (ToggleAccumulateCommand) isCommand() {}

// Queue is a thread-safe command queue bridging window callbacks (GLFW thread) and the
// render orchestrator (render goroutine). Producers Push, the orchestrator Drains once
// per frame.
type Queue struct {
	mu       sync.Mutex
	commands []Command
}

// NewQueue creates an empty command queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a command to the queue.
func (q *Queue) Push(cmd Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, cmd)
}

// Drain returns all pending commands in push order and empties the queue.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.commands
	q.commands = nil
	return drained
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}
