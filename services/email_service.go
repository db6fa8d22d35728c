package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Dosada05/league-system/config"
	"github.com/Dosada05/league-system/models"
)

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Implicit TLS
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("tls dial failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create smtp client: %w", err)
		}
	} else {
		// STARTTLS (usually 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("starttls failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("mail from failed: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("rcpt to failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data command failed: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return nil
}

func (s *EmailService) GenerateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templatePath, err)
	}

	return body.String(), nil
}

func (s *EmailService) SendWelcomeEmail(userEmail string, confirmationToken string) error {
	subject := "Welcome to the league!"
	templateData := struct {
		Email            string
		ConfirmationLink string
	}{
		Email:            userEmail,
		ConfirmationLink: fmt.Sprintf("%s/confirm-email?token=%s", s.cfg.PublicURL, confirmationToken),
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/welcome_email.html", templateData)
	if err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}

	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendPasswordResetEmail(userEmail string, resetToken string) error {
	subject := "Password reset"
	templateData := struct {
		Email     string
		ResetLink string
	}{
		Email:     userEmail,
		ResetLink: fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicURL, resetToken),
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/password_reset_email.html", templateData)
	if err != nil {
		return fmt.Errorf("failed to render password reset email: %w", err)
	}

	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

// SendOfferEmail notifies the receiving side of a roster offer: the player
// for a captain's invite, the captain for a player's request.
func (s *EmailService) SendOfferEmail(toEmail, teamName string, creator models.OfferCreator) error {
	subject := fmt.Sprintf("Roster offer from %s", teamName)
	if creator == models.OfferByPlayer {
		subject = "A player wants to join your team"
	}
	templateData := struct {
		TeamName   string
		FromPlayer bool
		OffersLink string
	}{
		TeamName:   teamName,
		FromPlayer: creator == models.OfferByPlayer,
		OffersLink: fmt.Sprintf("%s/offers", s.cfg.PublicURL),
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/offer_email.html", templateData)
	if err != nil {
		return fmt.Errorf("failed to render offer email: %w", err)
	}

	return s.SendEmail([]string{toEmail}, subject, htmlBody)
}
