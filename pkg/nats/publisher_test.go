package nats

import (
	"testing"

	"atlas-assistant-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "events.ASSISTANT_WEB_SEARCH", SubjectFor(events.AssistantWebSearch))
}
