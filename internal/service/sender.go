package service

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/config"
)

// SenderService delivers OTPs and booking notifications over email
// (SendGrid) and SMS (Twilio). Delivery failures are logged, never surfaced
// to the caller: notifications are best effort.
type SenderService struct {
	cfg *config.Config
	log *zap.SugaredLogger
}

func NewSenderService(cfg *config.Config, log *zap.SugaredLogger) *SenderService {
	return &SenderService{cfg: cfg, log: log}
}

// SendEmail sends a plain-text email through SendGrid.
func (s *SenderService) SendEmail(toEmail, toName, subject, body string) error {
	if s.cfg.SendgridAPIKey == "" || s.cfg.SendgridFromEmail == "" {
		return fmt.Errorf("sendgrid is not configured")
	}

	from := mail.NewEmail(s.cfg.SendgridFromName, s.cfg.SendgridFromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	client := sendgrid.NewSendClient(s.cfg.SendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("send email via sendgrid: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// SendSMS sends a text message through Twilio.
func (s *SenderService) SendSMS(toNumber, body string) error {
	if s.cfg.TwilioAccountSID == "" || s.cfg.TwilioAuthToken == "" {
		return fmt.Errorf("twilio is not configured")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: s.cfg.TwilioAccountSID,
		Password: s.cfg.TwilioAuthToken,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(s.cfg.TwilioFromNumber)
	params.SetBody(body)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms via twilio: %w", err)
	}
	return nil
}

// NotifyOtp delivers an OTP over SMS with email fallback, asynchronously.
func (s *SenderService) NotifyOtp(email, name, phone, otp, purpose string) {
	body := fmt.Sprintf("Your DigiPark %s code is %s. It expires in 10 minutes.", purpose, otp)
	go func() {
		if err := s.SendSMS(phone, body); err != nil {
			s.log.Warnw("otp sms delivery failed, trying email", "phone", phone, "error", err)
			if err := s.SendEmail(email, name, "Your DigiPark verification code", body); err != nil {
				s.log.Errorw("otp email delivery failed", "email", email, "error", err)
			}
		}
	}()
}

// NotifyBookingStatus tells the user about a booking transition.
func (s *SenderService) NotifyBookingStatus(email, name, plate, status string) {
	subject := fmt.Sprintf("Your DigiPark booking is %s", status)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour parking booking for vehicle %s is now %s.\n\nThank you for choosing DigiPark.",
		name, plate, status,
	)
	go func() {
		if err := s.SendEmail(email, name, subject, body); err != nil {
			s.log.Warnw("booking notification failed", "email", email, "error", err)
		}
	}()
}
