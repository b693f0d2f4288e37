// Package reconcile keeps a chat client's optimistic view of outgoing
// messages consistent with what the server has stored. It is pure: no I/O,
// no clocks, no goroutines.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/qmuntal/stateless"
)

// Status is the lifecycle of a pending message.
type Status string

const (
	StatusSending Status = "sending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

type trigger string

const (
	triggerSucceed trigger = "succeed"
	triggerFail    trigger = "fail"
	triggerRetry   trigger = "retry"
)

var ErrIllegalTransition = errors.New("reconcile: illegal status transition")

// newStatusMachine returns a machine positioned at from. Only
// sending->success, sending->failed and failed->sending are permitted.
func newStatusMachine(from Status) *stateless.StateMachine {
	m := stateless.NewStateMachine(from)
	m.Configure(StatusSending).
		Permit(triggerSucceed, StatusSuccess).
		Permit(triggerFail, StatusFailed)
	m.Configure(StatusFailed).
		Permit(triggerRetry, StatusSending)
	m.Configure(StatusSuccess)
	return m
}

func transition(from Status, t trigger) (Status, error) {
	m := newStatusMachine(from)
	if err := m.Fire(t); err != nil {
		return from, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, t, from)
	}
	return m.MustState().(Status), nil
}
