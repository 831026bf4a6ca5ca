package sms

import (
	"context"
	"fmt"

	"github.com/arsmn/go-smsir/smsir"
	"github.com/nyaruka/phonenumbers"

	"github.com/arvanehlab/ravan_backend/config"
)

// Client provides SMS sending functionality via sms.ir.
type Client struct {
	client  *smsir.Client
	enabled bool
}

// NewFromConfig creates a new SMS client from the application configuration.
// If SMS is disabled, returns a client that no-ops on all operations.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{enabled: false}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}

	client := smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey)

	return &Client{
		client:  client,
		enabled: true,
	}, nil
}

// SendCrisisAlert notifies the on-call care team that a severe assessment
// result came back. The template must have "person" and "severity"
// parameters. If SMS is disabled, this is a no-op and returns nil.
func (c *Client) SendCrisisAlert(ctx context.Context, phoneNumber, templateID, personID, severity string) error {
	if !c.enabled {
		// No-op when disabled (useful for development)
		return nil
	}

	if templateID == "" {
		return fmt.Errorf("template ID is required")
	}
	if personID == "" || severity == "" {
		return fmt.Errorf("person id and severity are required")
	}
	if err := ValidatePhone(phoneNumber); err != nil {
		return err
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     phoneNumber,
		TemplateID: templateID,
		Parameters: []smsir.UltraFastParameter{
			{Key: "person", Value: personID},
			{Key: "severity", Value: severity},
		},
	}

	_, err := c.client.Verification.UltraFastSend(ctx, req)
	if err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}

	return nil
}

// ValidatePhone checks that the number parses as a valid E.164 number.
func ValidatePhone(phoneNumber string) error {
	if phoneNumber == "" {
		return fmt.Errorf("phone number is required")
	}
	num, err := phonenumbers.Parse(phoneNumber, "")
	if err != nil {
		return fmt.Errorf("invalid phone number %q: %w", phoneNumber, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("invalid phone number %q", phoneNumber)
	}
	return nil
}

// IsEnabled returns whether SMS sending is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}
