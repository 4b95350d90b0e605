package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret comes from. File wins over Value when both
// are set, so a config can carry an inline default that a key file
// overrides.
type Source struct {
	// Name labels the secret in error messages.
	Name string
	// Value is an inline secret from configuration or flags.
	Value string
	// File is a path to a file holding the secret.
	File string
}

// Load resolves the secret, trimmed of surrounding whitespace. It fails when
// the source yields nothing usable.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}

		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
