package external

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"propertyalerts/internal/types"
)

// StubEmailProvider logs instead of sending. It is selected with
// EMAIL_PROVIDER=stub and when FEATURE_ENABLE_EMAIL=false. Sent messages are
// kept in memory for the dry-run tooling.
type StubEmailProvider struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []types.SendInput
}

var _ EmailProvider = (*StubEmailProvider)(nil)

func NewStubEmailProvider(logger *slog.Logger) *StubEmailProvider {
	return &StubEmailProvider{logger: logger}
}

func (s *StubEmailProvider) Send(ctx context.Context, input types.SendInput) (string, error) {
	s.mu.Lock()
	s.sent = append(s.sent, input)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "stub: email not sent",
		"template_id", input.TemplateID,
		"subject", input.Subject,
		"reference_id", input.ReferenceID,
	)
	return "stub_" + uuid.NewString(), nil
}

// Sent returns a copy of everything passed to Send.
func (s *StubEmailProvider) Sent() []types.SendInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SendInput, len(s.sent))
	copy(out, s.sent)
	return out
}
