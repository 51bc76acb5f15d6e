// Package voice defines the contract between a call session and the
// real-time voice service that conducts it.
//
// The service itself (speech recognition, turn taking, synthesis) is remote
// and opaque; this package only names the operations a session invokes on it
// and the event stream it emits back. Production transport lives in the
// gateway subpackage; the Emitter doubles as a deterministic event source
// for tests.
package voice

import (
	"context"
	"errors"

	"github.com/voxprep/interview-core/core/events"
)

// Handler consumes events of a subscribed kind.
type Handler func(events.Event)

// Client is one streaming session with a voice service.
//
// Start opens the remote stream and may only be called once per client.
// Stop requests termination of the active stream and is safe to call more
// than once. On registers a handler for an event kind and returns the
// function that removes the registration again.
type Client interface {
	Start(ctx context.Context, cfg StartConfig) error
	Stop() error
	On(kind events.Kind, handler Handler) (off func())
}

var (
	ErrNoTarget   = errors.New("start config names neither a workflow nor an assistant")
	ErrTwoTargets = errors.New("start config names both a workflow and an assistant")
)

// StartConfig tells the service what should drive the call: either a named
// remote workflow or an inline assistant script, parameterized with
// variables substituted into the script's prompt templates.
type StartConfig struct {
	WorkflowID string
	Assistant  *Assistant
	Variables  map[string]string
}

func (c StartConfig) Validate() error {
	if c.WorkflowID == "" && c.Assistant == nil {
		return ErrNoTarget
	}
	if c.WorkflowID != "" && c.Assistant != nil {
		return ErrTwoTargets
	}
	return nil
}
