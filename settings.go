package portfolio

import (
	"regexp"
	"strings"
)

// currencyCode matches exactly 3 ASCII letters, the shape ISO-4217 codes
// (and this engine's defaultCurrency) must take.
var currencyCode = regexp.MustCompile(`^[A-Za-z]{3}$`)

// Settings holds the portfolio's display currency and the provider API
// keys the registry is rebuilt from whenever one changes.
type Settings struct {
	DefaultCurrency string
	APIKeys         map[string]string
}

// NewSettings returns Settings defaulted to USD with no provider keys set.
func NewSettings() Settings {
	return Settings{DefaultCurrency: "USD", APIKeys: make(map[string]string)}
}

// SetDefaultCurrency validates and uppercases currency before storing it.
func (s *Settings) SetDefaultCurrency(currency string) error {
	if !currencyCode.MatchString(currency) {
		return newErr(ValidationError, "currency must be exactly 3 letters, got "+currency)
	}
	s.DefaultCurrency = strings.ToUpper(currency)
	return nil
}

// SetAPIKey stores (or clears, if key == "") the API key for provider.
// Callers must rebuild the provider registry after this changes, per the
// registry's "rebuilt whenever an API key changes" contract.
func (s *Settings) SetAPIKey(provider, key string) {
	if s.APIKeys == nil {
		s.APIKeys = make(map[string]string)
	}
	if key == "" {
		delete(s.APIKeys, provider)
		return
	}
	s.APIKeys[provider] = key
}

// APIKey returns the stored key for provider, or "" if unset.
func (s Settings) APIKey(provider string) string { return s.APIKeys[provider] }

func (s Settings) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("defaultCurrency", s.DefaultCurrency)
	w.Append("apiKeys", s.APIKeys)
	return w.MarshalJSON()
}

func (s *Settings) UnmarshalJSON(b []byte) error {
	var raw struct {
		DefaultCurrency string            `json:"defaultCurrency"`
		APIKeys         map[string]string `json:"apiKeys"`
	}
	if err := unmarshalJSON(b, &raw); err != nil {
		return err
	}
	s.DefaultCurrency = raw.DefaultCurrency
	s.APIKeys = raw.APIKeys
	if s.APIKeys == nil {
		s.APIKeys = make(map[string]string)
	}
	return nil
}
