package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"propertyalerts/internal/types"
)

const sendGridAPIBase = "https://api.sendgrid.com"

// sendGridCategory tags every message for SendGrid's per-category stats.
const sendGridCategory = "property-alert"

type SendGridClientConfig struct {
	APIKey  types.SecretString
	BaseURL string
	Logger  *slog.Logger
}

// SendGridClient sends through the v3 Mail Send API. Messages with a
// TemplateID use dynamic templates; others carry the rendered bodies.
type SendGridClient struct {
	base    *BaseClient
	apiKey  types.SecretString
	baseURL string
	logger  *slog.Logger
}

var _ EmailProvider = (*SendGridClient)(nil)

func NewSendGridClient(httpClient *http.Client, cfg SendGridClientConfig) *SendGridClient {
	base := NewBaseClient(httpClient, "sendgrid",
		RetryPolicy{MaxRetries: 2, MinWait: 500 * time.Millisecond, MaxWait: 5 * time.Second},
		userAgent,
	)
	return NewSendGridClientWithBase(base, cfg)
}

// NewSendGridClientWithBase lets tests control retries and sleeping.
func NewSendGridClientWithBase(base *BaseClient, cfg SendGridClientConfig) *SendGridClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = sendGridAPIBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGridClient{
		base:    base,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To          []sgAddress    `json:"to"`
	Subject     string         `json:"subject,omitempty"`
	DynamicData map[string]any `json:"dynamic_template_data,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgMailPayload struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject,omitempty"`
	TemplateID       string              `json:"template_id,omitempty"`
	Content          []sgContent         `json:"content,omitempty"`
	Categories       []string            `json:"categories,omitempty"`
	CustomArgs       map[string]string   `json:"custom_args,omitempty"`
}

func buildSendGridPayload(in types.SendInput) sgMailPayload {
	p := sgMailPayload{
		Personalizations: []sgPersonalization{{
			To:      []sgAddress{{Email: in.To}},
			Subject: in.Subject,
		}},
		From:       sgAddress{Email: in.From.Address, Name: in.From.Name},
		Categories: []string{sendGridCategory},
	}

	if in.TemplateID != "" {
		p.TemplateID = in.TemplateID
		p.Personalizations[0].DynamicData = in.TemplateData
	} else {
		p.Subject = in.Subject
		// text/plain must precede text/html.
		if in.BodyText != "" {
			p.Content = append(p.Content, sgContent{Type: "text/plain", Value: in.BodyText})
		}
		if in.BodyHTML != "" {
			p.Content = append(p.Content, sgContent{Type: "text/html", Value: in.BodyHTML})
		}
	}

	if in.ReferenceID != "" {
		p.CustomArgs = map[string]string{"reference_id": in.ReferenceID}
	}
	return p
}

// Send returns the X-Message-Id header of a 202 response.
//
// 403 maps to ErrCodeEmailBlocked; 429 and 5xx are retried by BaseClient;
// any other status maps to ErrCodeUpstreamEmailProvider.
func (s *SendGridClient) Send(ctx context.Context, input types.SendInput) (string, error) {
	body, err := json.Marshal(buildSendGridPayload(input))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode SendGrid payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build SendGrid request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey.Unmask())

	resp, err := s.base.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		return resp.Header.Get("X-Message-Id"), nil
	}
	return "", sendGridStatusError(resp)
}

type sgErrorBody struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func sendGridStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	msg := strings.TrimSpace(string(raw))
	var parsed sgErrorBody
	if json.Unmarshal(raw, &parsed) == nil && len(parsed.Errors) > 0 {
		msg = parsed.Errors[0].Message
	}

	if resp.StatusCode == http.StatusForbidden {
		return types.NewAppError(types.ErrCodeEmailBlocked,
			fmt.Sprintf("SendGrid blocked delivery: %s", msg), nil)
	}
	return types.NewAppError(types.ErrCodeUpstreamEmailProvider,
		fmt.Sprintf("SendGrid error (%d): %s", resp.StatusCode, msg), nil).
		WithDetails(map[string]any{"status": resp.StatusCode})
}
