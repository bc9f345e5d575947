package notifications

import "context"

type SendEmailConfirmationInput struct {
	Email    string
	Username string
	Token    string
	BaseURL  string
}

type Notifier interface {
	SendEmailConfirmation(ctx context.Context, input SendEmailConfirmationInput) error
}

// Instrumented wraps a Notifier and reports every outcome to observe,
// typically a prometheus counter hook.
func Instrumented(inner Notifier, observe func(err error)) Notifier {
	return &instrumented{inner: inner, observe: observe}
}

type instrumented struct {
	inner   Notifier
	observe func(err error)
}

func (n *instrumented) SendEmailConfirmation(ctx context.Context, input SendEmailConfirmationInput) error {
	err := n.inner.SendEmailConfirmation(ctx, input)

	if n.observe != nil {
		n.observe(err)
	}

	return err
}
