package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CredentialsFile is the on-disk format accepted by `calsyncd workspace
// import`: a YAML document listing workspace credentials to register.
type CredentialsFile struct {
	Workspaces []Workspace `yaml:"workspaces"`
}

// ReadCredentialsFile loads and validates a workspace credentials file.
//
// Workspaces without a ws_id are rejected; workspaces without an access
// token are accepted (they are stored but skipped by sync enumeration).
func ReadCredentialsFile(path string) ([]Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var file CredentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	for i := range file.Workspaces {
		if err := file.Workspaces[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid workspace at index %d: %w", i, err)
		}
	}

	return file.Workspaces, nil
}
