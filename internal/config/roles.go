// ABOUTME: TOML loader for role capability defaults
// ABOUTME: Lets operators override the built-in role-to-capability table

package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

// roleDefaultsFile is the on-disk shape of a role defaults override:
//
//	[roles]
//	manager = ["vault:create", "vault:read"]
//	viewer  = ["vault:read"]
type roleDefaultsFile struct {
	Roles map[string][]string `toml:"roles"`
}

// LoadRoleDefaults parses a TOML role defaults file into a role-to-capability
// map suitable for building a permission policy. An empty path returns nil,
// meaning the built-in defaults apply.
func LoadRoleDefaults(path string) (map[store.Role][]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading role defaults file: %w", err)
	}

	var file roleDefaultsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing role defaults file: %w", err)
	}

	defaults := make(map[store.Role][]string, len(file.Roles))
	for name, caps := range file.Roles {
		defaults[store.Role(name)] = caps
	}
	return defaults, nil
}
