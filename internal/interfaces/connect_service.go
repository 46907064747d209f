package interfaces

import (
	"context"

	"github.com/ternarybob/reditus/internal/models"
)

// ConnectService runs provider authorization popup flows end to end:
// open the popup, wait for the one trusted completion message, and report
// the outcome to the calling workflow.
type ConnectService interface {
	// StartFlow opens an authorization popup and blocks until the flow
	// concludes: first trusted message (success or provider-reported
	// failure), popup closed (cancelled), or ctx done. The registry entry
	// for the provider is cleared on every terminal path.
	StartFlow(ctx context.Context, sessionID string, provider models.Provider, authURL string) (*models.CompletionResult, error)
}

// ProviderCatalog resolves connect providers to their authorization URL and
// expected popup origin.
type ProviderCatalog interface {
	// Definition returns the catalog entry for a provider
	Definition(provider models.Provider) (*models.ProviderDefinition, error)

	// AuthorizationURL builds the URL the popup is opened on, carrying the
	// given opaque state value
	AuthorizationURL(provider models.Provider, state string) (string, error)

	// List returns all configured definitions
	List() []*models.ProviderDefinition
}
