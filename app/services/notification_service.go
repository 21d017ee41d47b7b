// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// NotificationService handles sending transactional email to link owners
type NotificationService interface {
	SendEmail(email, subject, message string) error
	SendWelcomeEmail(email, username string) error
	SendMilestoneEmail(email, username, linkTitle string, milestone int) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	emailProvider EmailProvider
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(email, subject, message string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(emailProvider EmailProvider) NotificationService {
	return &NotificationServiceImpl{
		emailProvider: emailProvider,
	}
}

// SendEmail sends an email to the specified email address
func (s *NotificationServiceImpl) SendEmail(email, subject, message string) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}

	// Basic email validation
	if len(email) == 0 || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %s", email)
	}

	return s.emailProvider.SendEmail(email, subject, message)
}

// SendWelcomeEmail sends the post-signup welcome email
func (s *NotificationServiceImpl) SendWelcomeEmail(email, username string) error {
	subject := "Welcome to LinkPulse"
	message := fmt.Sprintf("Hi %s,\n\nYour account is ready. Create your first tracked link and start watching the clicks roll in.", username)
	return s.SendEmail(email, subject, message)
}

// SendMilestoneEmail congratulates a link owner on reaching a click milestone
func (s *NotificationServiceImpl) SendMilestoneEmail(email, username, linkTitle string, milestone int) error {
	subject := fmt.Sprintf("Your link just hit %d clicks", milestone)
	message := fmt.Sprintf("Hi %s,\n\nYour link %q reached %d clicks. Keep sharing!", username, linkTitle, milestone)
	return s.SendEmail(email, subject, message)
}

type MockEmailProvider struct{}

func NewMockEmailProvider() EmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) SendEmail(email, subject, message string) error {
	log.Printf("Email sent to %s [%s]: %s", email, subject, message)
	return nil
}

type SMTPEmailProvider struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

func NewSMTPEmailProvider(host string, port int, username, password, fromEmail string) EmailProvider {
	return &SMTPEmailProvider{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
	}
}

func (p *SMTPEmailProvider) SendEmail(email, subject, message string) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	auth := smtp.PlainAuth("", p.username, p.password, p.host)

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", p.fromEmail, email, subject, message)

	if err := smtp.SendMail(addr, auth, p.fromEmail, []string{email}, []byte(body)); err != nil {
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	return nil
}
