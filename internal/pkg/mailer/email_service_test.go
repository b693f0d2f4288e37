package mailer

import (
	"testing"

	"career-counselor-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestWelcomeBody(t *testing.T) {
	body := welcomeBody("Ada", "http://localhost:5173")
	assert.Contains(t, body, "Welcome, Ada!")
	assert.Contains(t, body, `href="http://localhost:5173"`)
}

func TestNoopEmailService(t *testing.T) {
	svc := NewNoopEmailService(logger.NewNopLogger())
	assert.NoError(t, svc.SendWelcome("ada@example.com", "Ada"))
}
