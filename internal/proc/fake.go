package proc

import (
	"context"
	"sync"
)

// Fake is a Runner that records commands and answers from a callback.
// It is used by tests across the module.
type Fake struct {
	mu       sync.Mutex
	Commands []Command
	Respond  func(Command) (Result, error)
}

// Run records c and returns the canned response.
func (f *Fake) Run(_ context.Context, c Command) (Result, error) {
	f.mu.Lock()
	f.Commands = append(f.Commands, c)
	respond := f.Respond
	f.mu.Unlock()
	if respond == nil {
		return Result{}, nil
	}
	return respond(c)
}

// Calls returns a copy of the recorded commands.
func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.Commands...)
}
