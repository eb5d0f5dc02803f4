package razorpay

// Config represents the configuration for the Razorpay client
type Config struct {
	// KeyID is the public key id used for basic auth
	KeyID string

	// KeySecret signs checkout callbacks and authenticates API calls
	KeySecret string

	// BaseURL is the Razorpay API base URL, e.g. https://api.razorpay.com/v1
	BaseURL string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.KeyID == "" || c.KeySecret == "" {
		return ErrInvalidConfig
	}
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	return nil
}
