package queue

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galhr/portal/backend/internal/domain"
)

func TestLogPublisherDoesNotLeakData(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

	err := p.PublishMail(context.Background(), domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   "new@example.com",
		Data: domain.CreateUserMailData{Name: "New", Email: "new@example.com", Password: "s3cret-pass"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "type=create_user")
	assert.Contains(t, out, "to=new@example.com")
	assert.NotContains(t, out, "s3cret-pass")
}
