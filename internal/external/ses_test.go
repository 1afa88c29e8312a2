package external

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"propertyalerts/internal/types"
)

type mockSESAPI struct {
	input *sesv2.SendEmailInput
	err   error
}

func (m *mockSESAPI) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-msg-1")}, nil
}

func TestSESSend_Success(t *testing.T) {
	api := &mockSESAPI{}
	client := NewSESClientWithAPI(api, SESClientConfig{ConfigSetName: "alerts-tracking"})

	msgID, err := client.Send(context.Background(), types.SendInput{
		To:          "buyer@example.com",
		From:        types.SenderIdentity{Address: "alerts@example.com", Name: "Property Alerts"},
		Subject:     "🔒 Exclusive Off-Market Property: Loft",
		BodyHTML:    "<h1>Loft</h1>",
		BodyText:    "Loft",
		ReferenceID: "b1:p1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgID != "ses-msg-1" {
		t.Errorf("unexpected message id %q", msgID)
	}

	in := api.input
	if got := aws.ToString(in.FromEmailAddress); got != `"Property Alerts" <alerts@example.com>` {
		t.Errorf("unexpected from %q", got)
	}
	if aws.ToString(in.ConfigurationSetName) != "alerts-tracking" {
		t.Errorf("configuration set not applied")
	}
	msg := in.Content.Simple
	if aws.ToString(msg.Subject.Data) != "🔒 Exclusive Off-Market Property: Loft" {
		t.Errorf("unexpected subject %q", aws.ToString(msg.Subject.Data))
	}
	if msg.Body.Html == nil || msg.Body.Text == nil {
		t.Error("expected both bodies")
	}
	if len(in.EmailTags) != 1 || aws.ToString(in.EmailTags[0].Value) != "b1:p1" {
		t.Errorf("reference tag missing: %+v", in.EmailTags)
	}
}

func TestSESSend_OmitsEmptyParts(t *testing.T) {
	api := &mockSESAPI{}
	client := NewSESClientWithAPI(api, SESClientConfig{})

	if _, err := client.Send(context.Background(), types.SendInput{
		To:       "buyer@example.com",
		From:     types.SenderIdentity{Address: "alerts@example.com"},
		BodyText: "plain only",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.input.Content.Simple.Body.Html != nil {
		t.Error("html body should be omitted")
	}
	if api.input.ConfigurationSetName != nil || api.input.EmailTags != nil {
		t.Error("optional fields should be omitted")
	}
	if aws.ToString(api.input.FromEmailAddress) != "<alerts@example.com>" {
		t.Errorf("unexpected from %q", aws.ToString(api.input.FromEmailAddress))
	}
}

func TestSESSend_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.ErrorCode
	}{
		{"rejected", &sestypes.MessageRejected{Message: aws.String("bad")}, types.ErrCodeEmailBlocked},
		{"throttled", &sestypes.TooManyRequestsException{Message: aws.String("slow")}, types.ErrCodeUpstreamRateLimited},
		{"paused", &sestypes.SendingPausedException{Message: aws.String("paused")}, types.ErrCodeUpstreamUnavailable},
		{"other", errors.New("boom"), types.ErrCodeUpstreamEmailProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewSESClientWithAPI(&mockSESAPI{err: tt.err}, SESClientConfig{})
			_, err := client.Send(context.Background(), types.SendInput{To: "x@example.com"})

			var appErr *types.AppError
			if !errors.As(err, &appErr) || appErr.Code != tt.want {
				t.Fatalf("expected %s, got %v", tt.want, err)
			}
		})
	}
}
