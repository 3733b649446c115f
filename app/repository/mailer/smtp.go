package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/config"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpSender struct {
	addr string
	auth smtp.Auth
	from string
	send sendFunc
}

func NewSMTPSender(cfg config.SmtpConfig) domain.EmailSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &smtpSender{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth: auth,
		from: cfg.From,
		send: smtp.SendMail,
	}
}

func (s *smtpSender) Send(ctx context.Context, email domain.Email) error {
	if email.To == "" {
		return fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.send(s.addr, s.auth, s.from, []string{email.To}, buildMessage(s.from, email)); err != nil {
		slog.ErrorContext(ctx, "[smtpSender] Send", "sendMail", err, "to", email.To)
		return err
	}

	slog.InfoContext(ctx, "[smtpSender] Send", "to", email.To, "subject", email.Subject)
	return nil
}

func buildMessage(from string, email domain.Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + email.To + "\r\n")
	b.WriteString("Subject: " + email.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.HTML)
	return []byte(b.String())
}
