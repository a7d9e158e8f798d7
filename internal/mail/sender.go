// Package mail отвечает за доставку кодов подтверждения по электронной
// почте. Доставка выполняется по принципу fire-and-forget: ошибка
// отправки логируется вызывающей стороной, но не откатывает уже
// созданную запись пользователя.
package mail

import (
	"fmt"
	"log/slog"
	"sync"

	gomail "gopkg.in/gomail.v2"
)

// Sender определяет интерфейс доставки письма.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender реализует Sender поверх SMTP через gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *slog.Logger
}

// SMTPConfig - настройки подключения к SMTP-серверу.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPSender создает новый SMTPSender.
func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host cannot be empty")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address cannot be empty")
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}, nil
}

// Send отправляет письмо. Соединение устанавливается на каждую отправку:
// поток регистраций невелик и держать постоянное SMTP-соединение незачем.
func (s *SMTPSender) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	s.logger.Debug("Sending mail", slog.String("to", to), slog.String("subject", subject))
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// SentMessage - письмо, записанное MockSender.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// MockSender записывает письма в память. Используется в тестах и для
// локальной разработки без SMTP-сервера.
type MockSender struct {
	mu       sync.Mutex
	messages []SentMessage
	// FailNext заставляет следующую отправку вернуть ошибку.
	FailNext bool
}

// NewMockSender создает новый MockSender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return fmt.Errorf("mock mail delivery failure for %s", to)
	}
	m.messages = append(m.messages, SentMessage{To: to, Subject: subject, Body: body})
	return nil
}

// Messages возвращает копию записанных писем.
func (m *MockSender) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.messages...)
}
