package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "reset_password", "jane@example.com", "123456", time.Minute))

	code, err := s.Get(ctx, "reset_password", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	_, err = s.Get(ctx, "update_email", "jane@example.com")
	assert.ErrorIs(t, err, ErrNoCode)

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "reset_password", "jane@example.com")
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "reset_password", "a@example.com", "1", time.Hour))
	require.NoError(t, s.Delete(ctx, "reset_password", "a@example.com"))

	_, err := s.Get(ctx, "reset_password", "a@example.com")
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "otp_a@example.com_reset_password", key("reset_password", "a@example.com"))
}
