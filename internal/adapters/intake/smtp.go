// Package intake runs a small SMTP server that accepts incoming mail and
// files it into the repository as uncategorized email, optionally tagging
// it with the rule-based categorizer on arrival.
package intake

import (
	"context"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
	"github.com/ishaanpearpie/email-productivity-agent/internal/rules"
)

const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 30 * time.Second
	maxMessageBytes = 30 * 1024 * 1024
	maxRecipients   = 50

	storeTimeout = 10 * time.Second
)

// Server accepts email over SMTP and stores it
type Server struct {
	repo        core.EmailRepository
	logger      *zap.Logger
	listenAddr  string
	ruleTagging bool
	server      *smtp.Server
}

func NewServer(repo core.EmailRepository, logger *zap.Logger, listenAddr string, ruleTagging bool) *Server {
	return &Server{
		repo:        repo,
		logger:      logger,
		listenAddr:  listenAddr,
		ruleTagging: ruleTagging,
	}
}

// Start begins listening. It returns immediately; the server runs in the
// background until Stop is called.
func (s *Server) Start() error {
	s.server = smtp.NewServer(&smtpBackend{intake: s})
	s.server.Addr = s.listenAddr
	s.server.Domain = "localhost"
	s.server.ReadTimeout = readTimeout
	s.server.WriteTimeout = writeTimeout
	s.server.MaxMessageBytes = maxMessageBytes
	s.server.MaxRecipients = maxRecipients
	s.server.AllowInsecureAuth = true

	s.logger.Info("SMTP intake starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				s.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop shuts the server down
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// storeMessage parses a raw message and files it into the repository
func (s *Server) storeMessage(sender string, rawData []byte) error {
	msg, err := mail.ReadMessage(strings.NewReader(string(rawData)))
	if err != nil {
		s.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		s.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	subject := msg.Header.Get("Subject")
	timestamp := time.Now().Format(time.RFC3339)
	if date, err := msg.Header.Date(); err == nil {
		timestamp = date.Format(time.RFC3339)
	}

	email := &core.Email{
		Sender:    sender,
		Subject:   subject,
		Body:      body,
		Timestamp: timestamp,
	}
	if s.ruleTagging {
		email.Category = rules.Categorize(subject, body, sender)
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	id, err := s.repo.SaveEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to store incoming email",
			zap.String("sender", sender),
			zap.Error(err))
		return err
	}

	s.logger.Info("Stored incoming email",
		zap.Int64("email_id", id),
		zap.String("sender", sender),
		zap.String("subject", subject),
		zap.String("category", email.Category))
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	intake *Server
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{intake: b.intake}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	intake *Server
	sender string
}

func (s *smtpSession) Reset() {
	s.sender = ""
}

func (s *smtpSession) Logout() error {
	return nil
}

func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(_ string, _ *smtp.RcptOptions) error {
	// The assistant files everything into the single local inbox, so the
	// recipient is accepted but not recorded.
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}
	return s.intake.storeMessage(s.sender, rawData)
}
