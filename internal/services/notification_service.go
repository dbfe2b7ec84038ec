package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

type NotificationTemplate string

const (
	TemplatePaymentSuccess       NotificationTemplate = "payment_success"
	TemplatePaymentFailed        NotificationTemplate = "payment_failed"
	TemplateSubscriptionExpiring NotificationTemplate = "subscription_expiring"
	TemplateSubscriptionExpired  NotificationTemplate = "subscription_expired"
	TemplateInvoiceOverdue       NotificationTemplate = "invoice_overdue"
	TemplateAutoRenewDisabled    NotificationTemplate = "auto_renew_disabled"
)

// INotificationService is the narrow surface the billing core needs from the
// notification collaborator. Delivery mechanics live behind it.
type INotificationService interface {
	Notify(ctx context.Context, recipient string, template NotificationTemplate, data map[string]string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	AppName  string
}

type smtpNotificationService struct {
	cfg SMTPConfig
	log *logrus.Logger
}

func NewSMTPNotificationService(cfg SMTPConfig, log *logrus.Logger) INotificationService {
	return &smtpNotificationService{cfg: cfg, log: log}
}

var templateSubjects = map[NotificationTemplate]string{
	TemplatePaymentSuccess:       "Payment received",
	TemplatePaymentFailed:        "Payment failed",
	TemplateSubscriptionExpiring: "Your subscription is about to expire",
	TemplateSubscriptionExpired:  "Your subscription has expired",
	TemplateInvoiceOverdue:       "Invoice overdue",
	TemplateAutoRenewDisabled:    "Automatic renewal disabled",
}

var templateBodies = map[NotificationTemplate]string{
	TemplatePaymentSuccess:       "We received your payment of {{amount}} {{currency}} for invoice {{invoice_number}}.",
	TemplatePaymentFailed:        "Your payment for invoice {{invoice_number}} did not go through. Please update your payment details.",
	TemplateSubscriptionExpiring: "Your {{plan_name}} subscription ends on {{period_end}}. Renew to keep your membership benefits.",
	TemplateSubscriptionExpired:  "Your {{plan_name}} subscription has expired. You can re-subscribe at any time.",
	TemplateInvoiceOverdue:       "Invoice {{invoice_number}} for {{amount}} {{currency}} is overdue.",
	TemplateAutoRenewDisabled:    "Automatic renewal for your {{plan_name}} subscription was turned off after repeated payment failures.",
}

func (s *smtpNotificationService) Notify(ctx context.Context, recipient string, template NotificationTemplate, data map[string]string) error {
	subject, ok := templateSubjects[template]
	if !ok {
		return fmt.Errorf("unknown notification template %q", template)
	}
	body := templateBodies[template]
	for k, v := range data {
		body = strings.ReplaceAll(body, "{{"+k+"}}", v)
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", s.cfg.FromName, s.cfg.From),
		"To: " + recipient,
		"Subject: " + subject,
		"",
		body,
		"",
		"-- " + s.cfg.AppName,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		s.log.WithFields(logrus.Fields{
			"template":  template,
			"recipient": recipient,
		}).WithError(err).Warn("notification delivery failed")
		return err
	}
	return nil
}
