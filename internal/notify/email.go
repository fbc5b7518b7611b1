package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/locotown/open-scouts/internal/dispatch"
	"github.com/locotown/open-scouts/internal/scout"
)

// AddressResolver maps an account to its notification email address.
type AddressResolver func(ctx context.Context, accountID string) (string, error)

type EmailNotifier struct {
	apiKey      string
	fromName    string
	fromAddress string
	resolve     AddressResolver
	log         zerolog.Logger
}

func NewEmailNotifier(apiKey, fromName, fromAddress string, resolve AddressResolver, log zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		apiKey:      apiKey,
		fromName:    fromName,
		fromAddress: fromAddress,
		resolve:     resolve,
		log:         log,
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, sc *scout.Scout, res *dispatch.Result) error {
	to, err := n.resolve(ctx, sc.AccountID)
	if err != nil {
		return fmt.Errorf("failed to resolve address for account %s: %w", sc.AccountID, err)
	}

	subject := fmt.Sprintf("Scout update: %s", sc.Title)
	body := fmt.Sprintf("Your scout %q finished a run.\n\n%s\n", sc.Title, res.Summary)

	from := mail.NewEmail(n.fromName, n.fromAddress)
	toEmail := mail.NewEmail("", to)
	email := mail.NewSingleEmail(from, subject, toEmail, body, body)

	client := sendgrid.NewSendClient(n.apiKey)
	response, err := client.Send(email)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}

	n.log.Debug().Str("scout_id", sc.ID).Msg("email notification delivered")
	return nil
}
