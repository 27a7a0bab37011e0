package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"time"
)

// SMTPConfig holds the mail transport settings for upload notifications.
type SMTPConfig struct {
	Host    string
	Port    string
	User    string
	Pass    string
	Secure  bool // implicit TLS when true, otherwise STARTTLS if offered
	To      string
	Timeout time.Duration
}

// LoadSMTPConfig reads SMTP_* and EMAIL_TO from the environment.
func LoadSMTPConfig() SMTPConfig {
	timeout := 30 * time.Second
	if v := os.Getenv("SMTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	return SMTPConfig{
		Host:    os.Getenv("SMTP_HOST"),
		Port:    os.Getenv("SMTP_PORT"),
		User:    os.Getenv("SMTP_USER"),
		Pass:    os.Getenv("SMTP_PASS"),
		Secure:  os.Getenv("SMTP_SECURE") == "true",
		To:      os.Getenv("EMAIL_TO"),
		Timeout: timeout,
	}
}

// Complete reports whether all five required values are present.
// Notification is all-or-nothing: an incomplete config disables it.
func (c SMTPConfig) Complete() bool {
	return c.Host != "" && c.Port != "" && c.User != "" && c.Pass != "" && c.To != ""
}

// Notifier sends a best-effort message about a completed upload. Errors are
// logged by the caller and never surface to the uploading client.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

const notifySubject = "File Upload Notification"

// SMTPNotifier delivers one plain-text mail per call over a transient SMTP
// connection. The whole exchange is bounded by a single deadline so a hung
// mail server cannot stall an upload.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) Notify(ctx context.Context, message string) error {
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)
	dialer := net.Dialer{Timeout: n.cfg.Timeout}

	var (
		conn net.Conn
		err  error
	)
	if n.cfg.Secure {
		conn, err = tls.DialWithDialer(&dialer, "tcp", addr, &tls.Config{ServerName: n.cfg.Host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(n.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if !n.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Pass, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(n.cfg.User); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(n.cfg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		n.cfg.User, n.cfg.To, notifySubject, message,
	)
	if _, err := wc.Write([]byte(body)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return client.Quit()
}
