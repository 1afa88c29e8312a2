package email

import (
	"context"
	"fmt"

	"propertyalerts/internal/external"
	"propertyalerts/internal/types"
)

// ListingEnricher supplies optional display data for a listing.
type ListingEnricher interface {
	GetEnrichment(ctx context.Context, propertyID string) (types.ListingEnrichment, error)
}

type DispatcherConfig struct {
	Provider  external.EmailProvider
	Templates *TemplateRegistry
	Renderer  *Renderer
	Enricher  ListingEnricher
	From      types.SenderIdentity
	SiteURL   string
	Logger    types.Logger
}

// Dispatcher sends one alert email per match.
type Dispatcher struct {
	provider  external.EmailProvider
	templates *TemplateRegistry
	renderer  *Renderer
	enricher  ListingEnricher
	from      types.SenderIdentity
	siteURL   string
	logger    types.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		provider:  cfg.Provider,
		templates: cfg.Templates,
		renderer:  cfg.Renderer,
		enricher:  cfg.Enricher,
		from:      cfg.From,
		siteURL:   cfg.SiteURL,
		logger:    cfg.Logger,
	}
}

// TemplateName is the template recorded for alertType.
func (d *Dispatcher) TemplateName(alertType types.AlertType) string {
	return TemplateFor(alertType)
}

// Send delivers the alert and returns the provider message ID. Enrichment
// failures are logged and the email goes out without image or features;
// provider errors are returned.
func (d *Dispatcher) Send(ctx context.Context, m types.Match, alertType types.AlertType) (string, error) {
	to := m.Candidate.Profile.Email
	if to == "" {
		return "", ErrNoRecipient
	}

	var enr types.ListingEnrichment
	if d.enricher != nil {
		e, err := d.enricher.GetEnrichment(ctx, m.Listing.ID)
		if err != nil {
			d.logger.Warn("listing enrichment unavailable",
				"property_id", m.Listing.ID,
				"error", err,
			)
		} else {
			enr = e
		}
	}

	name := TemplateFor(alertType)
	subject := SubjectFor(alertType, m.Listing.Title)
	payload := BuildPayload(m, alertType, enr, d.siteURL)

	rendered, err := d.renderer.Render(name, subject, payload)
	if err != nil {
		return "", fmt.Errorf("Send: %w", err)
	}

	msgID, err := d.provider.Send(ctx, types.SendInput{
		To:           to,
		From:         d.from,
		Subject:      rendered.Subject,
		TemplateID:   d.templates.Resolve(name),
		TemplateData: payload.TemplateData(),
		BodyHTML:     rendered.BodyHTML,
		BodyText:     rendered.BodyText,
		ReferenceID:  m.Candidate.Profile.ID + ":" + m.Listing.ID,
	})
	if err != nil {
		if IsBlocklistError(err) {
			d.logger.Warn("recipient blocked by provider",
				"dest", RedactEmail(to),
				"property_id", m.Listing.ID,
			)
		}
		return "", err
	}

	d.logger.Info("alert email sent",
		"dest", RedactEmail(to),
		"property_id", m.Listing.ID,
		"alert_type", string(alertType),
		"template", name,
	)
	return msgID, nil
}
