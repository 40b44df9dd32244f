package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	gomail "github.com/wneessen/go-mail"

	"github.com/thegoodfork/accounts/internal/core/domain"
)

const (
	resetSubject   = "The Good Fork - Password Reset Request"
	defaultTimeout = 10 * time.Second
	maxRetries     = 2
	retryBase      = 200 * time.Millisecond
)

// Config captures the SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPNotifier mails password reset codes through an SMTP relay.
type SMTPNotifier struct {
	client   sender
	from     string
	fromName string
	backoff  func() retry.Backoff
}

// NewSMTPNotifier builds a go-mail client for the configured relay. SMTP auth
// is enabled only when a username is set.
func NewSMTPNotifier(cfg Config) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail: smtp host is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail client: %w", err)
	}
	return newSMTPNotifier(client, cfg.From, cfg.FromName), nil
}

func newSMTPNotifier(client sender, from, fromName string) *SMTPNotifier {
	return &SMTPNotifier{
		client:   client,
		from:     from,
		fromName: fromName,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBase))
		},
	}
}

// SendPasswordReset mails the plain reset code to the user's address. Transient
// delivery failures are retried with exponential backoff.
func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, user *domain.User, resetToken string) error {
	msg, err := n.buildMessage(user, resetToken)
	if err != nil {
		return err
	}

	err = retry.Do(ctx, n.backoff(), func(ctx context.Context) error {
		if sendErr := n.client.DialAndSendWithContext(ctx, msg); sendErr != nil {
			if isPermanent(sendErr) {
				return sendErr
			}
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		return oops.
			Code("MAIL_SEND_FAILED").
			In("mail").
			With("user_id", user.ID).
			Wrapf(err, "send password reset")
	}
	return nil
}

func (n *SMTPNotifier) buildMessage(user *domain.User, resetToken string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(n.fromName, n.from); err != nil {
		return nil, oops.Code("MAIL_INVALID_SENDER").In("mail").Wrapf(err, "set sender")
	}
	if err := msg.To(user.Email); err != nil {
		return nil, oops.Code("MAIL_INVALID_RECIPIENT").In("mail").With("user_id", user.ID).Wrapf(err, "set recipient")
	}
	msg.Subject(resetSubject)

	data := resetMailData{Username: user.Username, ResetToken: resetToken, Year: time.Now().Year()}
	if err := msg.SetBodyHTMLTemplate(resetHTML, data); err != nil {
		return nil, oops.Code("MAIL_RENDER_FAILED").In("mail").Wrapf(err, "render html body")
	}
	if err := msg.AddAlternativeTextTemplate(resetText, data); err != nil {
		return nil, oops.Code("MAIL_RENDER_FAILED").In("mail").Wrapf(err, "render text body")
	}
	return msg, nil
}

// isPermanent reports SMTP 5xx replies, which retrying cannot fix.
func isPermanent(err error) bool {
	var sendErr *gomail.SendError
	if errors.As(err, &sendErr) {
		return !sendErr.IsTemp()
	}
	return false
}

// LogNotifier writes reset codes to the log instead of sending mail. It is
// wired only when no SMTP host is configured in development.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, user *domain.User, resetToken string) error {
	n.log.Warn().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("reset_token", resetToken).
		Msg("smtp disabled; password reset code logged")
	return nil
}
