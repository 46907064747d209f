package models

// ProviderDefinition describes a connect provider: the origin its popup will
// message from and the OAuth settings used to build the authorization URL.
// Definitions can be overridden from YAML files in the providers directory.
type ProviderDefinition struct {
	Provider    Provider `yaml:"provider" validate:"required"`
	DisplayName string   `yaml:"display_name" validate:"required"`
	PopupOrigin string   `yaml:"popup_origin" validate:"required,url"`
	AuthURL     string   `yaml:"auth_url" validate:"required,url"`
	TokenURL    string   `yaml:"token_url" validate:"omitempty,url"`
	ClientID    string   `yaml:"client_id" validate:"required"`
	RedirectURL string   `yaml:"redirect_url" validate:"required,url"`
	Scopes      []string `yaml:"scopes"`
}
