// Package testutils holds fixtures shared by the transport tests.
package testutils

import (
	"testing"
	"time"

	"github.com/podyouths/rollcall"
	"github.com/podyouths/rollcall/pkg/adapters/memory"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
	"github.com/stretchr/testify/require"
)

// VerificationCode is the code accepted by engines built with NewEngine.
const VerificationCode = "secret"

// Now is the fixed instant engines built with NewEngine see.
var Now = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

// Clock returns Now.
func Clock() time.Time { return Now }

// NewGateway creates an in-memory gateway holding roster (cell group -> names).
func NewGateway(roster map[string][]string) *memory.Gateway {
	return memory.NewGatewayWithRoster(roster, "Member", domain.MustParseDate("2000-01-01"))
}

// NewEngine creates an engine over gw with the fixed clock and VerificationCode.
// It fails the test immediately on error.
func NewEngine(t *testing.T, gw ports.Gateway, opts ...rollcall.Option) *rollcall.Engine {
	t.Helper()

	opts = append([]rollcall.Option{rollcall.WithClock(Clock)}, opts...)
	eng, err := rollcall.New(gw, VerificationCode, opts...)
	require.NoError(t, err, "Failed to create engine")
	return eng
}
