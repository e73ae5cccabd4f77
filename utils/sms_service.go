// utils/sms_service.go
package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skillstream/lms_backend/config"
)

// SMSService sends OTP messages through the BestSMSBulk HTTP API.
type SMSService struct {
	Username string
	Password string
	SenderID string
	APIPath  string
	Client   *http.Client
}

// SMSResponse represents the provider's reply.
type SMSResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"message_id"`
		Cost      string `json:"cost"`
	} `json:"data"`
}

// NewSMSService creates an SMS client from configuration. Returns nil when no
// provider credentials are configured.
func NewSMSService(cfg config.SMSConfig) *SMSService {
	if cfg.Username == "" {
		return nil
	}
	return &SMSService{
		Username: cfg.Username,
		Password: cfg.Password,
		SenderID: cfg.SenderID,
		APIPath:  cfg.APIPath,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendOTP delivers a verification code to phoneNumber.
func (s *SMSService) SendOTP(ctx context.Context, phoneNumber, otp string) error {
	params := url.Values{}
	params.Set("username", s.Username)
	params.Set("password", s.Password)
	params.Set("senderid", s.SenderID)
	params.Set("destination", phoneNumber)
	params.Set("message", fmt.Sprintf("Your verification code is: %s. This code will expire in 10 minutes.", otp))
	params.Set("template", "otp")

	fullURL := fmt.Sprintf("%s?%s", s.APIPath, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, string(body))
	}

	var smsResp SMSResponse
	if err := json.Unmarshal(body, &smsResp); err != nil {
		// Some provider routes answer with a bare text body on success.
		responseStr := strings.ToLower(strings.TrimSpace(string(body)))
		if strings.Contains(responseStr, "success") || strings.Contains(responseStr, "sent") {
			return nil
		}
		return fmt.Errorf("failed to parse SMS response: %w", err)
	}

	if smsResp.Status == "success" || smsResp.Status == "sent" {
		return nil
	}

	return fmt.Errorf("SMS sending failed: %s", smsResp.Message)
}
