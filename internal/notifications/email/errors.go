// Package email turns a buyer/listing match into an alert email: it builds
// the template payload, renders the embedded bodies, resolves the provider
// template ID and hands the message to an external.EmailProvider.
package email

import (
	"errors"

	"propertyalerts/internal/types"
)

// ErrRecipientBlocked marks a recipient the provider refuses to deliver to.
var ErrRecipientBlocked = errors.New("recipient blocked by provider")

// ErrNoRecipient is returned for a candidate without an email address.
var ErrNoRecipient = errors.New("candidate has no email address")

// IsBlocklistError reports whether err means the provider suppressed the
// recipient, either via ErrRecipientBlocked or an ErrCodeEmailBlocked AppError.
func IsBlocklistError(err error) bool {
	if errors.Is(err, ErrRecipientBlocked) {
		return true
	}
	var appErr *types.AppError
	return errors.As(err, &appErr) && appErr.Code == types.ErrCodeEmailBlocked
}
