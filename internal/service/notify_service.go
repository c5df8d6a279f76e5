package service

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cozycakey/internal/db"
	"cozycakey/internal/entities"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

//go:embed templates/order_email.html
var templateFS embed.FS

var errNotConfigured = errors.New("not configured")

type NotifyConfig struct {
	BakeryName string
	Location   *time.Location

	SendGridAPIKey string
	FromEmail      string
	FromName       string
	BakeryEmail    string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	OwnerPhone       string

	VenmoHandle    string
	ZelleRecipient string
}

// NotifyService sends the order confirmation email and the owner SMS in the
// background. Missing credentials turn a channel off instead of failing orders.
type NotifyService struct {
	cfg  NotifyConfig
	tmpl *template.Template
	wg   sync.WaitGroup

	sendEmail func(toEmail, toName, subject, plainText, html string) error
	sendSMS   func(to, body string) error
}

func NewNotifyService(cfg NotifyConfig) (*NotifyService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/order_email.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing order email template: %w", err)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.BakeryName == "" {
		cfg.BakeryName = "Cozy Cakey"
	}
	s := &NotifyService{cfg: cfg, tmpl: tmpl}
	s.sendEmail = s.sendWithSendGrid
	s.sendSMS = s.sendWithTwilio
	return s, nil
}

// OrderPlaced queues the customer email, the bakery copy and the owner SMS.
func (s *NotifyService) OrderPlaced(o db.Order) {
	data := s.emailData(o)
	subject := fmt.Sprintf("%s order received - %s", s.cfg.BakeryName, data.DateFormatted)
	plain := renderPlainText(data)
	html, err := s.renderHTML(data)
	if err != nil {
		slog.Error("rendering order email", "order_id", o.ID, "err", err)
	}

	if o.Email != "" {
		s.async("customer email", o, func() error {
			return s.sendEmail(o.Email, o.CustomerName, subject, plain, html)
		})
	}
	if s.cfg.BakeryEmail != "" {
		s.async("bakery email", o, func() error {
			return s.sendEmail(s.cfg.BakeryEmail, s.cfg.BakeryName, "[Copy] "+subject, plain, html)
		})
	}
	if s.cfg.OwnerPhone != "" {
		body := fmt.Sprintf("New %s order from %s for %s (%s). Total %s.",
			o.OrderType, o.CustomerName, data.DateFormatted, data.FulfillmentLabel, data.TotalFormatted)
		s.async("owner sms", o, func() error {
			return s.sendSMS(s.cfg.OwnerPhone, body)
		})
	}
}

// Wait blocks until queued notifications finish, used on shutdown.
func (s *NotifyService) Wait() {
	s.wg.Wait()
}

func (s *NotifyService) async(channel string, o db.Order, send func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := send()
		switch {
		case errors.Is(err, errNotConfigured):
			slog.Info("notification skipped", "channel", channel, "order_id", o.ID, "reason", err)
		case err != nil:
			slog.Error("notification failed", "channel", channel, "order_id", o.ID, "err", err)
		default:
			slog.Info("notification sent", "channel", channel, "order_id", o.ID)
		}
	}()
}

func (s *NotifyService) emailData(o db.Order) entities.OrderEmailData {
	var extra struct {
		Lettering        string `json:"lettering"`
		CustomTopperText string `json:"customTopperText"`
	}
	if len(o.Details) > 0 {
		_ = json.Unmarshal(o.Details, &extra)
	}
	lettering := extra.Lettering
	if lettering == "" {
		lettering = extra.CustomTopperText
	}

	label := "Pickup"
	if o.DeliveryOption == "delivery" {
		label = "Delivery"
	}
	total := fmt.Sprintf("$%.2f", o.TotalPrice)

	return entities.OrderEmailData{
		BakeryName:          s.cfg.BakeryName,
		CustomerName:        o.CustomerName,
		OrderID:             o.ID.String(),
		CakeName:            o.CakeName,
		Size:                o.Size,
		Flavor:              o.Flavor,
		Lettering:           lettering,
		FulfillmentLabel:    label,
		DateFormatted:       o.DeliveryDate.Time(s.cfg.Location).Format("Monday, January 2, 2006"),
		PickupTime:          o.PickupTime,
		Address:             o.Address,
		PaymentInstructions: s.paymentInstructions(o.PaymentMethod, total),
		TotalFormatted:      total,
		QuestionsComments:   o.QuestionsComments,
		CurrentYear:         time.Now().In(s.cfg.Location).Year(),
	}
}

func (s *NotifyService) paymentInstructions(method, total string) string {
	switch {
	case method == "venmo" && s.cfg.VenmoHandle != "":
		return fmt.Sprintf("Please send %s via Venmo to @%s and include your order number in the note.",
			total, strings.TrimPrefix(s.cfg.VenmoHandle, "@"))
	case method == "zelle" && s.cfg.ZelleRecipient != "":
		return fmt.Sprintf("Please send %s via Zelle to %s and include your order number in the memo.",
			total, s.cfg.ZelleRecipient)
	}
	return "We will send payment instructions when we confirm your order."
}

func (s *NotifyService) renderHTML(data entities.OrderEmailData) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderPlainText(d entities.OrderEmailData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nWe received your order. We will reach out shortly to confirm the details.\n\n", d.CustomerName)
	fmt.Fprintf(&b, "Order: %s\nCake: %s\nSize: %s\nFlavor: %s\n", d.OrderID, d.CakeName, d.Size, d.Flavor)
	if d.Lettering != "" {
		fmt.Fprintf(&b, "Lettering: %s\n", d.Lettering)
	}
	fmt.Fprintf(&b, "%s: %s at %s\n", d.FulfillmentLabel, d.DateFormatted, d.PickupTime)
	if d.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", d.Address)
	}
	fmt.Fprintf(&b, "Total: %s\n\n%s\n\n%s", d.TotalFormatted, d.PaymentInstructions, d.BakeryName)
	return b.String()
}

func (s *NotifyService) sendWithSendGrid(toEmail, toName, subject, plainText, html string) error {
	if s.cfg.SendGridAPIKey == "" || s.cfg.FromEmail == "" {
		return fmt.Errorf("sendgrid %w", errNotConfigured)
	}
	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, html)

	resp, err := sendgrid.NewSendClient(s.cfg.SendGridAPIKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", toEmail, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func (s *NotifyService) sendWithTwilio(to, body string) error {
	if s.cfg.TwilioAccountSID == "" || s.cfg.TwilioAuthToken == "" || s.cfg.TwilioFromNumber == "" {
		return fmt.Errorf("twilio %w", errNotConfigured)
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   s.cfg.TwilioAccountSID,
		Password:   s.cfg.TwilioAuthToken,
		AccountSid: s.cfg.TwilioAccountSID,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.cfg.TwilioFromNumber)
	params.SetBody(body)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if resp != nil && resp.Sid != nil {
		slog.Debug("twilio message created", "sid", *resp.Sid)
	}
	return nil
}
