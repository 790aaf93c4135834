// Package metadata holds the key/value information the packaging files are
// generated from.
//
// Values are typically passed via environment variables following the
// pattern "LDNP_" + "META_" + identifier, for instance LDNP_META_DESCRIPTION.
// A packager designation may be inserted before the identifier to scope the
// value to a single packager, as in LDNP_META_DEB_DESCRIPTION; such values
// always take precedence over the global ones. Identifiers are
// case-insensitive and normalized to upper case, matching the environment.
//
// Resolution order per key: packager-specific variable, then global
// variable, then programmatically set default.
package metadata

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/configerr"
)

const envVarPrefix = "LDNP_META_"

// Map is a case-insensitive key/value store for package metadata.
type Map struct {
	logger zerolog.Logger
	values map[string]string
}

// Load builds a metadata map for the packager identified by packagerPrefix
// ("DEB" or "RPM") from the given environment. If defaultsFile is not empty
// it names a YAML file with string keys and values providing the lowest
// precedence layer.
func Load(logger zerolog.Logger, packagerPrefix string, environ []string, defaultsFile string) (*Map, error) {
	m := &Map{
		logger: logger.With().Str("component", "metadata").Logger(),
		values: make(map[string]string),
	}

	if defaultsFile != "" {
		data, err := os.ReadFile(defaultsFile)
		if err != nil {
			return nil, fmt.Errorf("cannot read metadata defaults: %w", err)
		}
		defaults := make(map[string]string)
		if err := yaml.Unmarshal(data, &defaults); err != nil {
			return nil, fmt.Errorf("cannot parse metadata defaults %s: %w", defaultsFile, err)
		}
		for key, value := range defaults {
			m.Set(key, value)
		}
	}

	packagerEnvVarPrefix := envVarPrefix + strings.ToUpper(packagerPrefix) + "_"

	// Global variables first, packager-specific ones second so that the
	// latter always win regardless of environment ordering.
	for _, pass := range []bool{false, true} {
		for _, entry := range environ {
			name, value, ok := strings.Cut(entry, "=")
			if !ok || !strings.HasPrefix(name, envVarPrefix) {
				continue
			}
			packagerSpecific := strings.HasPrefix(name, packagerEnvVarPrefix)
			if packagerSpecific != pass {
				continue
			}
			identifier := strings.TrimPrefix(name, envVarPrefix)
			if packagerSpecific {
				identifier = strings.TrimPrefix(name, packagerEnvVarPrefix)
			}
			m.Set(identifier, value)
		}
	}

	m.logger.Debug().Interface("values", m.values).Msg("metadata loaded")
	return m, nil
}

// Get returns the value stored for the given identifier, if any.
func (m *Map) Get(identifier string) (string, bool) {
	value, ok := m.values[strings.ToUpper(identifier)]
	return value, ok
}

// Value returns the stored value or the empty string. Used by templates.
func (m *Map) Value(identifier string) string {
	value, _ := m.Get(identifier)
	return value
}

// ValueOr returns the stored value, or fallback if the identifier is unset
// or empty. Used by templates for optional fields with defaults.
func (m *Map) ValueOr(identifier, fallback string) string {
	if value, ok := m.Get(identifier); ok && value != "" {
		return value
	}
	return fallback
}

// Set stores a value, normalizing the identifier to upper case.
func (m *Map) Set(identifier, value string) {
	m.values[strings.ToUpper(identifier)] = value
}

// SetDefault stores a value only if the identifier has no value yet.
func (m *Map) SetDefault(identifier, value string) {
	if _, ok := m.Get(identifier); !ok {
		m.Set(identifier, value)
	}
}

// Require checks that every given identifier has a non-empty value. The
// build must not start without these.
func (m *Map) Require(identifiers ...string) error {
	for _, identifier := range identifiers {
		if value, _ := m.Get(identifier); value == "" {
			return configerr.Errorf("required metadata %s is not set (export %s%s or provide a defaults file)",
				strings.ToUpper(identifier), envVarPrefix, strings.ToUpper(identifier))
		}
	}
	return nil
}

// Keys returns all stored identifiers in sorted order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
