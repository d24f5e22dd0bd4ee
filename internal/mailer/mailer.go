package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

//go:embed templates/*.txt
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.txt"))

// Decision is the outcome of an admin review sent to the applicant.
type Decision struct {
	// From is used when the mailer has no sender of its own.
	From     string
	To       string
	Name     string
	JobTitle string
	Approved bool
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Mailer struct {
	sender sender
	from   string
	logger *zap.Logger
}

// New builds a mailer that talks SMTP over implicit TLS.
func New(cfg Config, logger *zap.Logger) (*Mailer, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return newMailer(client, from, logger), nil
}

func newMailer(s sender, from string, logger *zap.Logger) *Mailer {
	return &Mailer{sender: s, from: from, logger: logger}
}

func (m *Mailer) SendDecision(ctx context.Context, d Decision) error {
	msg, err := m.message(d)
	if err != nil {
		return err
	}

	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Error("failed to send decision email",
			zap.String("to", d.To),
			zap.Bool("approved", d.Approved),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	m.logger.Info("decision email sent",
		zap.String("to", d.To),
		zap.Bool("approved", d.Approved),
	)

	return nil
}

func (m *Mailer) message(d Decision) (*mail.Msg, error) {
	subject, body, err := compose(d)
	if err != nil {
		return nil, err
	}

	from := m.from
	if from == "" {
		from = d.From
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(d.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", d.To, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}

// compose renders the subject and plain text body for a decision.
func compose(d Decision) (subject, body string, err error) {
	name := "rejected.txt"
	subject = fmt.Sprintf("Отказ. Здравствуйте, %s!", d.Name)
	if d.Approved {
		name = "approved.txt"
		subject = fmt.Sprintf("Собеседование. Здравствуйте, %s!", d.Name)
	}
	if d.JobTitle != "" {
		subject += " Вакансия: " + d.JobTitle
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, d); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}

	return subject, buf.String(), nil
}
