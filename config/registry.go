package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/upb/llm-gateway/services/providers"
	"gopkg.in/yaml.v3"
)

// registryFile is the on-disk layout of ROUTING_FILE
type registryFile struct {
	Providers map[string]providerEntry   `yaml:"providers"`
	Routing   map[string]providers.Route `yaml:"routing"`
}

type providerEntry struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Key    string `yaml:"key"`
	KeyEnv string `yaml:"key_env"`
}

// LoadRegistryFile reads a YAML provider and route table.
//
// A provider may carry its credential inline (key) or name the environment
// variable holding it (key_env); an inline key wins. Unknown fields are
// rejected so typos surface at load time.
func LoadRegistryFile(path string) (providers.Registration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return providers.Registration{}, fmt.Errorf("failed to read registry file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes and validates a YAML registry document
func ParseRegistry(data []byte) (providers.Registration, error) {
	var file registryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return providers.Registration{}, fmt.Errorf("failed to parse registry file: %w", err)
	}

	reg := providers.Registration{
		Providers: make(map[string]providers.ProviderConfig, len(file.Providers)),
		Routing:   file.Routing,
	}
	for id, entry := range file.Providers {
		key := entry.Key
		if key == "" && entry.KeyEnv != "" {
			key = os.Getenv(entry.KeyEnv)
		}
		reg.Providers[id] = providers.ProviderConfig{
			Name: entry.Name,
			URL:  entry.URL,
			Key:  key,
		}
	}

	if err := reg.Validate(); err != nil {
		return providers.Registration{}, fmt.Errorf("invalid registry file: %w", err)
	}
	return reg, nil
}
