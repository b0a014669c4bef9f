package middleware

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
)

// ErrNotSealed is returned when a sealing store loads a session that carries no ciphertext.
var ErrNotSealed = errors.New("session is missing sealed data")

// SealingConfig holds the age keys used to seal sessions at rest.
type SealingConfig struct {
	// Identity decrypts sessions and provides the default recipient.
	Identity *age.X25519Identity

	// FallbackIdentities are tried when Identity cannot open a session,
	// which allows rotating the key without dropping conversations.
	FallbackIdentities []*age.X25519Identity

	// ExtraRecipients additionally receive every sealed session (e.g. an escrow key).
	ExtraRecipients []age.Recipient
}

type sealingMiddleware struct {
	next       ports.SessionStore
	recipients []age.Recipient
	identities []age.Identity
}

// NewSealingMiddleware creates a middleware that encrypts the collected data of
// every session with age. Only the chat, step and timestamp stay readable.
func NewSealingMiddleware(config SealingConfig) (Middleware, error) {
	if config.Identity == nil {
		return nil, errors.New("sealing identity is required")
	}

	recipients := append([]age.Recipient{config.Identity.Recipient()}, config.ExtraRecipients...)
	identities := []age.Identity{config.Identity}
	for _, id := range config.FallbackIdentities {
		identities = append(identities, id)
	}

	return func(next ports.SessionStore) ports.SessionStore {
		return &sealingMiddleware{next: next, recipients: recipients, identities: identities}
	}, nil
}

// ParseIdentity parses an AGE-SECRET-KEY-1... string.
func ParseIdentity(key string) (*age.X25519Identity, error) {
	id, err := age.ParseX25519Identity(key)
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}
	return id, nil
}

func (m *sealingMiddleware) Save(ctx context.Context, chatID string, s *domain.Session) error {
	plain, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, m.recipients...)
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := w.Write(plain); err != nil {
		return fmt.Errorf("sealing session: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing seal: %w", err)
	}

	envelope := &domain.Session{
		ChatID:    s.ChatID,
		Step:      s.Step,
		UpdatedAt: s.UpdatedAt,
		Sealed:    base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
	return m.next.Save(ctx, chatID, envelope)
}

func (m *sealingMiddleware) Load(ctx context.Context, chatID string) (*domain.Session, error) {
	envelope, err := m.next.Load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if envelope.Sealed == "" {
		return nil, fmt.Errorf("chat %s: %w", chatID, ErrNotSealed)
	}

	raw, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return nil, fmt.Errorf("decoding sealed session: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(raw), m.identities...)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal session: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal unsealed session: %w", err)
	}
	return &s, nil
}

func (m *sealingMiddleware) Delete(ctx context.Context, chatID string) error {
	return m.next.Delete(ctx, chatID)
}

func (m *sealingMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
