package domain

import (
	"fmt"
	"strings"
)

// ConfigurationError reports credentials missing from the environment.
// It is returned before any network call is made.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// ExternalAPIError is a non-2xx response from one of the remote services.
type ExternalAPIError struct {
	Service string
	Status  int
	Body    string
	Asset   string
}

func (e *ExternalAPIError) Error() string {
	if e.Asset != "" {
		return fmt.Sprintf("%s API error for %s: status %d: %s", e.Service, e.Asset, e.Status, e.Body)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Service, e.Status, e.Body)
}

// InvalidResponseError is a 2xx response whose body does not have the
// expected shape.
type InvalidResponseError struct {
	Service string
	Reason  string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid %s API response: %s", e.Service, e.Reason)
}
