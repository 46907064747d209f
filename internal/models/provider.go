package models

import (
	"fmt"
	"strings"
)

// Provider identifies an external integration target for a connect flow.
// The set is closed - trust registry and flow lookups are keyed by it.
type Provider string

const (
	ProviderSearchConsole Provider = "search-console"
	ProviderAnalytics     Provider = "analytics"
	ProviderWordPress     Provider = "wordpress"
	ProviderMedium        Provider = "medium"
)

// AllProviders returns every recognized provider identifier
func AllProviders() []Provider {
	return []Provider{
		ProviderSearchConsole,
		ProviderAnalytics,
		ProviderWordPress,
		ProviderMedium,
	}
}

// ParseProvider converts a string to a Provider, rejecting unknown values
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ProviderSearchConsole, ProviderAnalytics, ProviderWordPress, ProviderMedium:
		return p, nil
	}
	return "", fmt.Errorf("unknown provider: %q", s)
}

// IsValid reports whether the provider is a member of the closed set
func (p Provider) IsValid() bool {
	_, err := ParseProvider(string(p))
	return err == nil
}

func (p Provider) String() string {
	return string(p)
}
