package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/podyouths/rollcall/pkg/persistence/middleware"
	"github.com/podyouths/rollcall/pkg/ports"
)

// ListSessions prints the chats with a conversation in progress.
func ListSessions(ctx context.Context, w io.Writer, store ports.SessionStore) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		_, err := fmt.Fprintln(w, "No active sessions found.")
		return err
	}

	fmt.Fprintln(w, "Active Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// InspectSession prints one session as indented JSON. With redact, member
// names are masked.
func InspectSession(ctx context.Context, w io.Writer, store ports.SessionStore, chatID string, redact bool) error {
	if redact {
		store = middleware.Chain(store, middleware.NewRedactionMiddleware())
	}

	s, err := store.Load(ctx, chatID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", chatID, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// RemoveSessions deletes each session, reporting every failure.
func RemoveSessions(ctx context.Context, w io.Writer, store ports.SessionStore, chatIDs []string) error {
	var errs []error
	for _, id := range chatIDs {
		if err := store.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
