package mailer

import (
	"fmt"

	"career-counselor-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(toEmail, name string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	clientURL   string
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName, clientURL string, log logger.ILogger) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
		clientURL:   clientURL,
		logger:      log,
	}
}

func (s *emailService) SendWelcome(toEmail, name string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Welcome to your career counselor")
	m.SetBody("text/html", welcomeBody(name, s.clientURL))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("MAILER", "Failed to send welcome email", map[string]interface{}{
			"to":    toEmail,
			"error": err.Error(),
		})
		return err
	}

	s.logger.Info("MAILER", "Welcome email sent", map[string]interface{}{"to": toEmail})
	return nil
}

func welcomeBody(name, clientURL string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome, %s!</h2>
			<p>Your account is ready. Start a session and ask the counselor about career changes, interviews or the skills you want to grow.</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Start chatting</a>
		</div>
	`, name, clientURL)
}

// noopEmailService is used when SMTP is not configured.
type noopEmailService struct {
	logger logger.ILogger
}

func NewNoopEmailService(log logger.ILogger) IEmailService {
	return &noopEmailService{logger: log}
}

func (s *noopEmailService) SendWelcome(toEmail, name string) error {
	s.logger.Debug("MAILER", "SMTP not configured, skipping welcome email", map[string]interface{}{"to": toEmail})
	return nil
}
