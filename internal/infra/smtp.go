package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"assettracker/internal/config"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrMailerDisabled is returned by Send when no SMTP host is configured.
var ErrMailerDisabled = errors.New("mailer: SMTP host not configured")

// Attachment is an in-memory file attached to a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound HTML email.
type Message struct {
	To          []string
	Subject     string
	HTML        []byte
	Attachments []Attachment
}

// Mailer sends mail over SMTP behind a circuit breaker so a dead relay
// fails fast instead of stalling every notification for the dial timeout.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	from     string
	cb       *gobreaker.CircuitBreaker
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFromAddress
	if cfg.SMTPFromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.SMTPFromName, cfg.SMTPFromAddress)
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:     from,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "smtp",
			MaxRequests: 2,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
					Msg("circuit breaker state change")
			},
		}),
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m.host != "" }

// State returns the breaker state for the health endpoint.
func (m *Mailer) State() string { return m.cb.State().String() }

// Send delivers msg. The context is only checked before dialing; net/smtp
// has no context-aware API.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		return ErrMailerDisabled
	}
	if len(msg.To) == 0 {
		return errors.New("mailer: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = msg.To
	e.Subject = msg.Subject
	e.HTML = msg.HTML
	for _, a := range msg.Attachments {
		if _, err := e.Attach(bytes.NewReader(a.Data), a.Filename, a.ContentType); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", a.Filename, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}

	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, e.Send(m.addr, auth)
	})
	if err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}
