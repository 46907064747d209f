package providers

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/models"
	"golang.org/x/oauth2"
)

// Catalog implements ProviderCatalog: it resolves connect providers to their
// OAuth settings and the origin their authorization popup will message from.
// Built-in defaults can be overridden from YAML definition files.
type Catalog struct {
	mu          sync.RWMutex
	definitions map[models.Provider]*models.ProviderDefinition
	validate    *validator.Validate
	logger      arbor.ILogger
}

// NewCatalog creates a catalog seeded with the built-in definitions
func NewCatalog(logger arbor.ILogger) *Catalog {
	c := &Catalog{
		definitions: make(map[models.Provider]*models.ProviderDefinition),
		validate:    validator.New(),
		logger:      logger,
	}

	for _, def := range defaultDefinitions() {
		c.definitions[def.Provider] = def
	}

	return c
}

// defaultDefinitions returns the shipped provider catalog. Client ids and
// redirect URLs are placeholders until overridden by deployment-specific
// definition files.
func defaultDefinitions() []*models.ProviderDefinition {
	return []*models.ProviderDefinition{
		{
			Provider:    models.ProviderSearchConsole,
			DisplayName: "Google Search Console",
			PopupOrigin: "https://accounts.google.com",
			AuthURL:     "https://accounts.google.com/o/oauth2/auth",
			TokenURL:    "https://oauth2.googleapis.com/token",
			ClientID:    "reditus-search-console",
			RedirectURL: "http://localhost:8085/connect/callback",
			Scopes:      []string{"https://www.googleapis.com/auth/webmasters.readonly"},
		},
		{
			Provider:    models.ProviderAnalytics,
			DisplayName: "Google Analytics",
			PopupOrigin: "https://accounts.google.com",
			AuthURL:     "https://accounts.google.com/o/oauth2/auth",
			TokenURL:    "https://oauth2.googleapis.com/token",
			ClientID:    "reditus-analytics",
			RedirectURL: "http://localhost:8085/connect/callback",
			Scopes:      []string{"https://www.googleapis.com/auth/analytics.readonly"},
		},
		{
			Provider:    models.ProviderWordPress,
			DisplayName: "WordPress.com",
			PopupOrigin: "https://public-api.wordpress.com",
			AuthURL:     "https://public-api.wordpress.com/oauth2/authorize",
			TokenURL:    "https://public-api.wordpress.com/oauth2/token",
			ClientID:    "reditus-wordpress",
			RedirectURL: "http://localhost:8085/connect/callback",
			Scopes:      []string{"posts"},
		},
		{
			Provider:    models.ProviderMedium,
			DisplayName: "Medium",
			PopupOrigin: "https://medium.com",
			AuthURL:     "https://medium.com/m/oauth/authorize",
			TokenURL:    "https://api.medium.com/v1/tokens",
			ClientID:    "reditus-medium",
			RedirectURL: "http://localhost:8085/connect/callback",
			Scopes:      []string{"basicProfile", "publishPost"},
		},
	}
}

// Definition returns the catalog entry for a provider
func (c *Catalog) Definition(provider models.Provider) (*models.ProviderDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.definitions[provider]
	if !ok {
		return nil, fmt.Errorf("no definition for provider: %s", provider)
	}
	return def, nil
}

// AuthorizationURL builds the URL the popup is opened on. State carries the
// flow id so the callback can correlate the popup with its flow.
func (c *Catalog) AuthorizationURL(provider models.Provider, state string) (string, error) {
	def, err := c.Definition(provider)
	if err != nil {
		return "", err
	}

	conf := &oauth2.Config{
		ClientID:    def.ClientID,
		RedirectURL: def.RedirectURL,
		Scopes:      def.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  def.AuthURL,
			TokenURL: def.TokenURL,
		},
	}

	return conf.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// List returns all configured definitions in provider order
func (c *Catalog) List() []*models.ProviderDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]*models.ProviderDefinition, 0, len(c.definitions))
	for _, provider := range models.AllProviders() {
		if def, ok := c.definitions[provider]; ok {
			list = append(list, def)
		}
	}
	return list
}

// upsert validates and stores a definition, replacing any existing entry
func (c *Catalog) upsert(def *models.ProviderDefinition) error {
	if !def.Provider.IsValid() {
		return fmt.Errorf("unknown provider in definition: %q", def.Provider)
	}
	if err := c.validate.Struct(def); err != nil {
		return fmt.Errorf("invalid provider definition for %s: %w", def.Provider, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.definitions[def.Provider] = def

	return nil
}
