package external

import (
	"context"

	"propertyalerts/internal/types"
)

// EmailProvider transmits one email and returns the provider's message ID.
// Hosted-template providers use SendInput.TemplateID and TemplateData; raw
// providers use Subject and the rendered bodies.
type EmailProvider interface {
	Send(ctx context.Context, input types.SendInput) (providerMsgID string, err error)
}

// Provider names accepted by EMAIL_PROVIDER.
const (
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
	ProviderStub     = "stub"
)
