package tool

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUIDV7(t *testing.T) {
	id := GenerateUUIDV7()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(7), parsed.Version())
}

func TestNewOrderID(t *testing.T) {
	now := time.UnixMilli(1756500000000)

	id := NewOrderID("0123456789abcdef", "paddle", now)
	require.Equal(t, "ord-01234567-paddle-1756500000000", id)

	// Short user ids are used as-is.
	id = NewOrderID("u1", "paddle", now)
	require.True(t, strings.HasPrefix(id, "ord-u1-paddle-"))
}
