package knowledge

import (
	"context"
	"errors"
	"fmt"

	"atlas-assistant-be/pkg/store"
)

// ErrUnavailable is wrapped by implementations when the corpus cannot be consulted.
var ErrUnavailable = errors.New("knowledge base unavailable")

// LookupError reports a failed knowledge-base query.
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("knowledge base lookup failed: %v", e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Client is the scored-answer oracle consumed by the orchestrator. The
// matching algorithm behind it is not the orchestrator's concern.
type Client interface {
	Query(ctx context.Context, text string, conversation []string) (store.CandidateAnswer, error)
}
