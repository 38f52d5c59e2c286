package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"leadmarket_backend/platform/config"
)

// SMTPSender implements the Sender interface using a direct SMTP connection
// via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendOrderCreatedEmail(ctx context.Context, toEmail string, data OrderCreatedData) error {
	subject := fmt.Sprintf(subjectOrderCreatedFmt, data.CampaignName)
	content, err := renderEmailTemplate("order_created.html", orderCreatedEmailData{
		baseEmailData: baseEmailData{
			Title:   "New order",
			Heading: "New order",
		},
		CampaignName:       data.CampaignName,
		AgentName:          data.AgentName,
		OrderType:          data.OrderType,
		TotalFormatted:     formatCurrencyUSD(data.TotalCents),
		FreshTarget:        data.FreshTarget,
		SecondChanceTarget: data.SecondChanceTarget,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendOrderCancelledEmail(ctx context.Context, toEmail string, data OrderCancelledData) error {
	subject := fmt.Sprintf(subjectOrderCancelledFmt, data.CampaignName)
	content, err := renderEmailTemplate("order_cancelled.html", orderCancelledEmailData{
		baseEmailData: baseEmailData{
			Title:   "Order cancelled",
			Heading: "Order cancelled",
		},
		CampaignName:   data.CampaignName,
		AgentName:      data.AgentName,
		TotalFormatted: formatCurrencyUSD(data.TotalCents),
		Reason:         data.Reason,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendImportCompletedEmail(ctx context.Context, toEmail string, data ImportCompletedData) error {
	subject := fmt.Sprintf(subjectImportCompletedFmt, data.CampaignName)
	content, err := renderEmailTemplate("import_completed.html", importCompletedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Lead import completed",
			Heading: "Lead import completed",
		},
		CampaignName: data.CampaignName,
		Origin:       data.Origin,
		Imported:     data.Imported,
		Skipped:      data.Skipped,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

// Compile-time check that SMTPSender implements Sender.
var _ Sender = (*SMTPSender)(nil)
