// Package gcp holds helpers shared by the Google Cloud client constructors.
package gcp

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"google.golang.org/api/option"
)

// ClientOptions translates the configured credentials into client options.
// With nothing configured the clients fall back to Application Default
// Credentials.
func ClientOptions(cfg config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))}
	case strings.TrimSpace(cfg.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.ApplicationCredentials)}
	default:
		return nil
	}
}
