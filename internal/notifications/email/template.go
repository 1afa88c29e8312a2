package email

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"propertyalerts/internal/types"
)

// Template names, also stored on AlertRecord.email_template.
const (
	TemplateOnMarket  = "property_alert"
	TemplateOffMarket = "off_market_alert"
)

const (
	subjectOnMarket  = "🏠 New Property Match: %s"
	subjectOffMarket = "🔒 Exclusive Off-Market Property: %s"

	priceOnRequest = "Contact Agent"
	defaultName    = "there"
)

// TemplateFor returns the template name for an alert type.
func TemplateFor(alertType types.AlertType) string {
	if alertType == types.AlertOffMarket {
		return TemplateOffMarket
	}
	return TemplateOnMarket
}

// SubjectFor builds the subject line for an alert type and listing title.
func SubjectFor(alertType types.AlertType, title string) string {
	if alertType == types.AlertOffMarket {
		return fmt.Sprintf(subjectOffMarket, title)
	}
	return fmt.Sprintf(subjectOnMarket, title)
}

// TemplateRegistry maps template names to provider template IDs, loaded from
// EMAIL_TEMPLATES_JSON. A name without an ID is sent as rendered content.
type TemplateRegistry struct {
	ids map[string]string
}

func NewTemplateRegistry(templatesJSON string) (*TemplateRegistry, error) {
	ids := map[string]string{}
	if s := strings.TrimSpace(templatesJSON); s != "" {
		if err := json.Unmarshal([]byte(s), &ids); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalTemplate, "invalid EMAIL_TEMPLATES_JSON", err)
		}
	}
	return &TemplateRegistry{ids: ids}, nil
}

// Resolve returns the provider template ID for name, or "".
func (r *TemplateRegistry) Resolve(name string) string {
	if r == nil {
		return ""
	}
	return r.ids[name]
}

// Payload is the data exposed to both the embedded templates and provider
// hosted templates.
type Payload struct {
	Name             string
	PropertyTitle    string
	Price            string
	Location         string
	PropertyType     string
	Bedrooms         int
	Bathrooms        int
	Image            string
	MatchingFeatures []string
	PropertyURL      string
	IsOffMarket      bool
}

// TemplateData flattens the payload with the provider-facing key names.
// image and matchingFeatures are present only when set.
func (p Payload) TemplateData() map[string]any {
	data := map[string]any{
		"name":          p.Name,
		"propertyTitle": p.PropertyTitle,
		"price":         p.Price,
		"location":      p.Location,
		"propertyType":  p.PropertyType,
		"bedrooms":      p.Bedrooms,
		"bathrooms":     p.Bathrooms,
		"propertyUrl":   p.PropertyURL,
		"isOffMarket":   p.IsOffMarket,
	}
	if p.Image != "" {
		data["image"] = p.Image
	}
	if len(p.MatchingFeatures) > 0 {
		data["matchingFeatures"] = p.MatchingFeatures
	}
	return data
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatPrice prefers the agent-entered display text, then the numeric
// price, then "Contact Agent".
func FormatPrice(l types.PropertyListing) string {
	if s := strings.TrimSpace(l.PriceDisplay); s != "" {
		return s
	}
	if l.Price != nil && *l.Price > 0 {
		return usd.Sprintf("$%.0f", *l.Price)
	}
	return priceOnRequest
}

// BuildPayload assembles the email payload for one match.
func BuildPayload(m types.Match, alertType types.AlertType, enr types.ListingEnrichment, siteURL string) Payload {
	name := strings.TrimSpace(m.Candidate.Profile.FullName)
	if name == "" {
		name = defaultName
	}
	l := m.Listing
	return Payload{
		Name:             name,
		PropertyTitle:    l.Title,
		Price:            FormatPrice(l),
		Location:         l.City + ", " + l.State,
		PropertyType:     l.PropertyType,
		Bedrooms:         l.Bedrooms,
		Bathrooms:        l.Bathrooms,
		Image:            enr.ImageURL,
		MatchingFeatures: enr.Features,
		PropertyURL:      strings.TrimSuffix(siteURL, "/") + "/properties/" + l.ID,
		IsOffMarket:      alertType == types.AlertOffMarket,
	}
}
