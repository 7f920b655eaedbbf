package relay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Aliases maps friendly model names to provider model ids. Clients can ask
// for "fast" or "smart" and the relay picks the concrete model.
type Aliases struct {
	aliases map[string]string
}

type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliases reads an alias table from a YAML file. An empty path yields
// an empty table.
func LoadAliases(path string) (*Aliases, error) {
	a := &Aliases{aliases: map[string]string{}}
	if path == "" {
		return a, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}
	var f aliasFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse aliases: %w", err)
	}
	a.aliases = f.Aliases
	if a.aliases == nil {
		a.aliases = map[string]string{}
	}
	return a, nil
}

// Resolve maps an alias to its model id. Names with no alias entry pass
// through unchanged.
func (a *Aliases) Resolve(model string) string {
	if resolved, ok := a.aliases[model]; ok {
		return resolved
	}
	return model
}
