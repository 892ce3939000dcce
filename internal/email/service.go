package email

import (
	"fmt"
	"net/smtp"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendRequestConfirmation sends an order request confirmation email
func (s *Service) SendRequestConfirmation(to, requestID string, total int, items []RequestItem) error {
	shortID := requestID
	if len(requestID) > 8 {
		shortID = requestID[:8]
	}
	subject := fmt.Sprintf("Order request received (ref: %s)", shortID)
	body := BuildRequestConfirmationBody(requestID, total, items)
	return s.send(to, subject, body)
}

// SendAccountApproved sends the account approval notice
func (s *Service) SendAccountApproved(to, company string) error {
	subject := "Your account has been approved"
	body := BuildAccountApprovedBody(company)
	return s.send(to, subject, body)
}

// SendPasswordResetCode sends a password reset code
func (s *Service) SendPasswordResetCode(to, code string) error {
	subject := "Password reset code"
	body := BuildPasswordResetBody(code)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
