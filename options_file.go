package nimbus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOptions mirrors the subset of Options a host application can
// reasonably externalize into a config file; Backoff and the test-only
// transport override have no serializable form.
type fileOptions struct {
	DSN                string  `yaml:"dsn"`
	Release            string  `yaml:"release"`
	Environment        string  `yaml:"environment"`
	CorePoolSize       int     `yaml:"core_pool_size"`
	MaxRetries         int     `yaml:"max_retries"`
	MaxQueueSize       int     `yaml:"max_queue_size"`
	MaxEventsPerSecond float64 `yaml:"max_events_per_second"`
}

// LoadOptionsFile reads a YAML options overlay from path, for host
// applications that externalize SDK configuration the way the rest of their
// own config is managed rather than constructing Options in code.
func LoadOptionsFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("nimbus: read options file %s: %w", path, err)
	}

	var f fileOptions
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Options{}, fmt.Errorf("nimbus: parse options file %s: %w", path, err)
	}

	return Options{
		DSN:                f.DSN,
		Release:            f.Release,
		Environment:        f.Environment,
		CorePoolSize:       f.CorePoolSize,
		MaxRetries:         f.MaxRetries,
		MaxQueueSize:       f.MaxQueueSize,
		MaxEventsPerSecond: f.MaxEventsPerSecond,
	}, nil
}
