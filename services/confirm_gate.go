package services

import (
	"context"
	"sync"
)

// ConfirmAction is the deferred work a confirmation gate runs once confirmed
type ConfirmAction func(ctx context.Context) (ActionResult, error)

// ConfirmPrompt is what the front end renders for the gate
type ConfirmPrompt struct {
	IsOpen  bool   `json:"isOpen"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Working bool   `json:"working"`
}

// ConfirmGate is a single-slot yes/no prompt. Opening it while a prompt is
// showing replaces that prompt. The gate closes itself on confirm and on
// cancel; while a confirmed action runs it reports Working.
type ConfirmGate struct {
	mu      sync.Mutex
	open    bool
	title   string
	message string
	action  ConfirmAction
	working int
}

// NewConfirmGate creates a closed gate
func NewConfirmGate() *ConfirmGate {
	return &ConfirmGate{}
}

// Open shows a prompt that will run action if confirmed
func (g *ConfirmGate) Open(title, message string, action ConfirmAction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = true
	g.title = title
	g.message = message
	g.action = action
}

// Prompt returns the current prompt
func (g *ConfirmGate) Prompt() ConfirmPrompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ConfirmPrompt{
		IsOpen:  g.open,
		Title:   g.title,
		Message: g.message,
		Working: g.working > 0,
	}
}

// Confirm closes the gate and runs the stored action, returning its result
func (g *ConfirmGate) Confirm(ctx context.Context) (ActionResult, error) {
	g.mu.Lock()
	if !g.open {
		g.mu.Unlock()
		return ActionResult{}, ErrConfirmationNotOpen
	}
	action := g.action
	g.reset()
	g.working++
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.working--
		g.mu.Unlock()
	}()

	return action(ctx)
}

// Cancel closes the gate without running anything. It reports whether a prompt was open.
func (g *ConfirmGate) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	wasOpen := g.open
	g.reset()
	return wasOpen
}

// reset clears the slot; callers hold g.mu
func (g *ConfirmGate) reset() {
	g.open = false
	g.title = ""
	g.message = ""
	g.action = nil
}
