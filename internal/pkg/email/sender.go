package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Drivers accepted by NewSender.
const (
	DriverLog      = "log"
	DriverSMTP     = "smtp"
	DriverSendGrid = "sendgrid"
)

// Message is a rendered email ready to send.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds the delivery settings for every driver.
type Config struct {
	Driver         string
	FromAddress    string
	FromName       string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPUseTLS     bool
	SendGridAPIKey string
}

// NewSender builds the sender selected by cfg.Driver. Unknown drivers fall
// back to logging.
func NewSender(cfg Config, logger zerolog.Logger) Sender {
	switch cfg.Driver {
	case DriverSMTP:
		return &SMTPSender{config: cfg, logger: logger}
	case DriverSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.FromName, cfg.FromAddress, logger)
	default:
		return &LogSender{logger: logger}
	}
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("htmlBytes", len(msg.HTML)).
		Msg("Email delivery disabled, message logged")
	return nil
}

// SMTPSender delivers through an SMTP relay, optionally over implicit TLS.
type SMTPSender struct {
	config Config
	logger zerolog.Logger
}

func (s *SMTPSender) buildMessage(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.config.FromName, s.config.FromAddress)
	if msg.ToName != "" {
		fmt.Fprintf(&b, "To: %s <%s>\r\n", msg.ToName, msg.To)
	} else {
		fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// Send delivers the message.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}
	serverAddress := s.config.SMTPHost + ":" + strconv.Itoa(s.config.SMTPPort)
	body := s.buildMessage(msg)

	if !s.config.SMTPUseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromAddress, []string{msg.To}, body); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.SMTPHost})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			s.logger.Error().Err(err).Msg("SMTP authentication failed")
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err = client.Mail(s.config.FromAddress); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(body); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	key    string
	host   string
	from   *sgmail.Email
	logger zerolog.Logger
}

const sendGridEndpoint = "/v3/mail/send"

// NewSendGridSender creates a SendGridSender.
func NewSendGridSender(key, fromName, fromAddress string, logger zerolog.Logger) *SendGridSender {
	return &SendGridSender{
		key:    key,
		host:   "https://api.sendgrid.com",
		from:   sgmail.NewEmail(fromName, fromAddress),
		logger: logger,
	}
}

func (s *SendGridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	return m
}

// Send delivers the message.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := sendgrid.GetRequest(s.key, sendGridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		s.logger.Error().Err(err).Str("to", msg.To).Msg("SendGrid request failed")
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.logger.Error().Int("status", res.StatusCode).Str("body", res.Body).Msg("SendGrid rejected message")
		return fmt.Errorf("sendgrid rejected message: status %d", res.StatusCode)
	}
	return nil
}
