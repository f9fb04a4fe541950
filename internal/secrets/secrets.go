// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files and
// from the process environment. Each file in the directory represents one
// secret: the filename is the key name and the trimmed contents are the value.
//
// Supported key files: google-api-key, openai-api-key, anthropic-api-key, brave-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key file names understood by the CLI.
const (
	GoogleAPIKey    = "google-api-key"
	OpenAIAPIKey    = "openai-api-key"
	AnthropicAPIKey = "anthropic-api-key"
	BraveAPIKey     = "brave-api-key"
)

// envNames maps a key file name to the environment variable that may carry it.
var envNames = map[string]string{
	GoogleAPIKey:    "GOOGLE_API_KEY",
	OpenAIAPIKey:    "OPENAI_API_KEY",
	AnthropicAPIKey: "ANTHROPIC_API_KEY",
	BraveAPIKey:     "BRAVE_API_KEY",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Lookup returns the value for key, preferring the environment variable
// associated with it over the loaded secrets map. It returns "" when
// neither source has a value.
func Lookup(loaded map[string]string, key string) string {
	if env, ok := envNames[key]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return loaded[key]
}

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	return envNames[key]
}
