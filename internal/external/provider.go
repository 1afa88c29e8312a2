package external

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"propertyalerts/internal/config"
)

// NewEmailProvider selects the transport named by EMAIL_PROVIDER. The stub is
// returned whenever email is disabled by feature flag.
func NewEmailProvider(cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) (EmailProvider, error) {
	if !cfg.Feature.EnableEmail {
		return NewStubEmailProvider(logger), nil
	}

	switch cfg.Email.Provider {
	case ProviderSendGrid:
		return NewSendGridClient(&http.Client{Timeout: 10 * time.Second}, SendGridClientConfig{
			APIKey: cfg.Email.SendGridAPIKey,
			Logger: logger,
		}), nil
	case ProviderSES:
		return NewSESClient(awsCfg, SESClientConfig{
			ConfigSetName: cfg.Email.ConfigurationSet,
			Logger:        logger,
		}), nil
	case ProviderStub, "":
		return NewStubEmailProvider(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
}
