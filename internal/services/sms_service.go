package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/template"
	"time"

	log "github.com/sirupsen/logrus"
	"milelog/internal/config"
)

type ISMSService interface {
	SendVerificationCode(ctx context.Context, phone, code string) error
}

const verificationTemplate = `{{.AppName}}: your verification code is {{.Code}}. It expires in {{.Minutes}} minutes.`

type smsData struct {
	AppName string
	Code    string
	Minutes int
}

var smsTpl = template.Must(template.New("verification").Parse(verificationTemplate))

func renderVerificationSMS(code string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	err := smsTpl.Execute(&buf, smsData{AppName: "MileLog", Code: code, Minutes: int(ttl / time.Minute)})
	return buf.String(), err
}

const twilioBaseURL = "https://api.twilio.com"

type twilioSMSService struct {
	cfg     config.TwilioConfig
	http    *http.Client
	baseURL string
	ttl     time.Duration
}

func NewTwilioSMSService(cfg config.TwilioConfig, codeTTL time.Duration) ISMSService {
	return &twilioSMSService{
		cfg:     cfg,
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: twilioBaseURL,
		ttl:     codeTTL,
	}
}

func (s *twilioSMSService) SendVerificationCode(ctx context.Context, phone, code string) error {
	body, err := renderVerificationSMS(code, s.ttl)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", s.cfg.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(s.baseURL, "/"), url.PathEscape(s.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("twilio http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio bad status: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}

// logSMSService is used when no SMS provider is configured. The code itself
// only reaches the log at debug level.
type logSMSService struct {
	ttl time.Duration
}

func NewLogSMSService(codeTTL time.Duration) ISMSService {
	return &logSMSService{ttl: codeTTL}
}

func (s *logSMSService) SendVerificationCode(_ context.Context, phone, code string) error {
	body, err := renderVerificationSMS(code, s.ttl)
	if err != nil {
		return err
	}
	entry := log.WithField("phone", phone)
	entry.WithField("code", strings.Repeat("*", len(code))).Info("SMS provider not configured, verification code not sent")
	entry.Debug(body)
	return nil
}
