package providers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/reditus/internal/models"
	"gopkg.in/yaml.v3"
)

// providerFile is the on-disk YAML shape: one or more definitions per file.
// Format:
//
//	providers:
//	  - provider: analytics
//	    display_name: Google Analytics
//	    popup_origin: https://accounts.google.com
//	    ...
type providerFile struct {
	Providers []*models.ProviderDefinition `yaml:"providers"`
}

// LoadFromDir loads provider definition overrides from YAML files in dirPath.
// A missing directory is not an error; malformed files and invalid
// definitions are skipped with a warning so one bad file cannot take the
// shipped catalog down.
func (c *Catalog) LoadFromDir(dirPath string) error {
	c.logger.Debug().Str("dir", dirPath).Msg("Loading provider definitions from files")

	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		c.logger.Debug().Str("dir", dirPath).Msg("Providers directory does not exist, skipping")
		return nil
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		c.logger.Warn().Err(err).Str("dir", dirPath).Msg("Failed to read providers directory")
		return nil // Non-fatal
	}

	loadedCount := 0
	errorCount := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}

		filePath := filepath.Join(dirPath, name)
		content, err := os.ReadFile(filePath)
		if err != nil {
			c.logger.Warn().Err(err).Str("file", name).Msg("Failed to read provider file")
			errorCount++
			continue
		}

		var file providerFile
		if err := yaml.Unmarshal(content, &file); err != nil {
			c.logger.Warn().Err(err).Str("file", name).Msg("Failed to parse provider file")
			errorCount++
			continue
		}

		for _, def := range file.Providers {
			if err := c.upsert(def); err != nil {
				c.logger.Warn().Err(err).Str("file", name).Msg("Skipping invalid provider definition")
				errorCount++
				continue
			}
			loadedCount++
		}
	}

	if loadedCount > 0 || errorCount > 0 {
		c.logger.Info().
			Int("loaded", loadedCount).
			Int("errors", errorCount).
			Msg("Provider definitions loaded")
	}

	return nil
}
