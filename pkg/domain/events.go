package domain

import (
	"context"
	"time"
)

// TransitionEvent is emitted after every processed message.
type TransitionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	ChatID    string    `json:"chat_id"`
	From      Step      `json:"from"`
	To        Step      `json:"to"`
}

// CommitEvent is emitted once the terminal reconciliation has run.
type CommitEvent struct {
	Timestamp time.Time    `json:"timestamp"`
	ChatID    string       `json:"chat_id"`
	CellGroup string       `json:"cell_group"`
	Date      Date         `json:"date"`
	Report    CommitReport `json:"report"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnCommit     func(context.Context, *CommitEvent)
}
