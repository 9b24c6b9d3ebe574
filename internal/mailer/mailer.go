// Package mailer delivers account lifecycle emails through a bounded
// background dispatcher so the request path never waits on SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"sync"

	"inkwell/internal/middleware"
)

// Template names for the lifecycle emails.
const (
	TemplateActivation    = "activation_email"
	TemplateResetPassword = "reset_password_email"
)

// Message describes one email to deliver. Context carries template values
// (currently just the signed token).
type Message struct {
	Template string
	To       string
	Token    string
}

// Sender delivers a single message synchronously.
type Sender interface {
	Send(msg Message) error
}

// SMTPConfig holds connection settings for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	BaseURL  string
}

// SMTPSender delivers mail over plain SMTP.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender returns a Sender backed by net/smtp.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(msg Message) error {
	subject, body := s.render(msg)

	raw := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", s.cfg.From, msg.To, subject, body)

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, []byte(raw)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (s *SMTPSender) render(msg Message) (subject, body string) {
	switch msg.Template {
	case TemplateResetPassword:
		link := fmt.Sprintf("%s/api/v1/auth/reset-password/%s", s.cfg.BaseURL, msg.Token)
		subject = "Reset your password"
		body = fmt.Sprintf(`Hello!

A password reset was requested for this address.

To choose a new password, follow the link below:

%s

If you did not request a reset, ignore this email.
`, link)
	default:
		link := fmt.Sprintf("%s/api/v1/auth/activation/%s", s.cfg.BaseURL, msg.Token)
		subject = "Confirm your email"
		body = fmt.Sprintf(`Hello!

Thanks for registering.

To confirm your email and activate your account, follow the link below:

%s

If you did not register, ignore this email.
`, link)
	}
	return subject, body
}

// Dispatcher fans messages out to a fixed pool of workers over a buffered
// queue. Enqueue never blocks: when the queue is full the message is dropped
// and logged. Delivery failures are logged and counted, never surfaced to the
// original caller.
type Dispatcher struct {
	sender Sender
	queue  chan Message
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher starts `workers` goroutines consuming from a queue of the
// given size.
func NewDispatcher(sender Sender, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &Dispatcher{
		sender: sender,
		queue:  make(chan Message, queueSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		if err := d.sender.Send(msg); err != nil {
			middleware.MailFailed.WithLabelValues(msg.Template, "send_error").Inc()
			middleware.Logger.Error("background email delivery failed",
				slog.String("template", msg.Template),
				slog.String("to", msg.To),
				slog.String("error", err.Error()),
			)
			continue
		}
		middleware.Logger.Info("background email delivered",
			slog.String("template", msg.Template),
			slog.String("to", msg.To),
		)
	}
}

// Enqueue hands a message to the background pool. Fire-and-forget: a full
// queue drops the message rather than blocking the request, and enqueues that
// race shutdown are dropped rather than panicking on the closed queue.
func (d *Dispatcher) Enqueue(msg Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		middleware.MailFailed.WithLabelValues(msg.Template, "shutting_down").Inc()
		middleware.Logger.Warn("mail dispatcher closed, dropping message",
			slog.String("template", msg.Template),
			slog.String("to", msg.To),
		)
		return
	}

	select {
	case d.queue <- msg:
		middleware.MailDispatched.WithLabelValues(msg.Template).Inc()
	default:
		middleware.MailFailed.WithLabelValues(msg.Template, "queue_full").Inc()
		middleware.Logger.Warn("mail queue full, dropping message",
			slog.String("template", msg.Template),
			slog.String("to", msg.To),
		)
	}
}

// Close stops accepting messages and waits for in-flight deliveries, or until
// ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
