package payment

import (
	"errors"
	"net/url"
	"time"
)

// XenditConfig contains configuration for the Xendit REST API
type XenditConfig struct {
	// BaseURL is the API root, e.g. https://api.xendit.co
	BaseURL string
	// SecretKey authenticates API calls with HTTP basic auth
	SecretKey string
	// Timeout bounds every outbound call
	Timeout time.Duration
}

// Errors for configuration validation
var (
	ErrXenditMissingSecretKey = errors.New("xendit: missing secret key")
	ErrXenditInvalidBaseURL   = errors.New("xendit: invalid base URL")
)

// Validate validates the configuration
func (c *XenditConfig) Validate() error {
	if c.SecretKey == "" {
		return ErrXenditMissingSecretKey
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrXenditInvalidBaseURL
	}
	return nil
}
