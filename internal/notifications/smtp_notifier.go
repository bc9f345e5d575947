package notifications

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier delivers confirmation emails over authenticated SMTP.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) SendEmailConfirmation(ctx context.Context, in SendEmailConfirmationInput) error {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
	}

	// Port 465 is implicit TLS; everything else negotiates STARTTLS.
	if n.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(n.cfg.Host, opts...)

	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	msg := mail.NewMsg()

	if err := msg.From(n.cfg.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}

	if err := msg.To(in.Email); err != nil {
		return fmt.Errorf("to address: %w", err)
	}

	msg.Subject("Confirm your email")
	msg.SetBodyString(mail.TypeTextHTML, confirmationBody(in))

	return client.DialAndSendWithContext(ctx, msg)
}

func confirmationBody(in SendEmailConfirmationInput) string {
	link := fmt.Sprintf("%s/api/auth/confirmed_email/%s", in.BaseURL, in.Token)

	return fmt.Sprintf(
		`<html><body>
<p>Hi %s,</p>
<p>Thanks for signing up. Please confirm your email address by following the link below:</p>
<p><a href=%q>Confirm email</a></p>
<p>If you did not create this account, you can ignore this message.</p>
</body></html>`,
		in.Username, link,
	)
}
