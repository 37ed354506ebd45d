package worker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/evolve-africa/backend/pkg/queue"
)

func TestRenderConfirmation(t *testing.T) {
	subject, html, text := RenderConfirmation(queue.ConfirmationPayload{
		RegistrationID:  uuid.New(),
		RecipientEmail:  "jane@example.com",
		FirstName:       "Jane",
		SelectedSession: "Evening",
	})
	assert.Equal(t, "Registration confirmed", subject)
	assert.Contains(t, text, "Jane")
	assert.Contains(t, text, "Evening")
	assert.Contains(t, html, "<b>Evening</b>")
}

func TestRenderConfirmation_MissingName(t *testing.T) {
	_, _, text := RenderConfirmation(queue.ConfirmationPayload{
		RecipientEmail:  "a@b.com",
		SelectedSession: "Morning",
	})
	assert.Contains(t, text, "Hi there")
}
