// SPDX-License-Identifier: MPL-2.0

package forge

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ErrNoCredentials signals that no forge credentials file was found. The
// pipeline treats this as "skip publishing", not as a failure.
var ErrNoCredentials = errors.New("no forge credentials configured")

// Credentials hold the API token for a self-hosted forge, plus an optional
// base URL override for hosts whose API lives somewhere other than the
// remote's own hostname.
type Credentials struct {
	Token   string `toml:"token"`
	BaseURL string `toml:"base_url,omitempty"`
}

// LoadCredentials reads the TOML credentials file at path. A missing file
// returns ErrNoCredentials; a present but unusable file is an error, so a
// typo in the token key cannot silently skip publishing.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("reading credentials file %s: %w", path, err)
	}

	var creds Credentials
	if err := toml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials file %s: %w", path, err)
	}
	if creds.Token == "" {
		return nil, fmt.Errorf("credentials file %s has no token", path)
	}
	return &creds, nil
}

// WriteCredentialsTemplate writes a commented scaffold for the credentials
// file. Fails if the file already exists.
func WriteCredentialsTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("credentials file %s already exists", path)
	}

	const template = `# relkit forge credentials.
# Used when publishing to a self-hosted (non-GitHub) forge.

# API token with repository write access.
token = ""

# Optional: override the API base URL. Defaults to the origin remote's host.
# base_url = "https://git.example.com"
`
	return os.WriteFile(path, []byte(template), 0o600)
}
