package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/signalrun/internal/fault"
)

// DefaultVersion labels error reports when the configured version
// cannot be recovered from the config file.
const DefaultVersion = "v1"

// requiredFields lists the keys every run config must carry.
var requiredFields = []string{"seed", "window", "version"}

// RunConfig is the validated run configuration. Instances are built by
// Validate and never mutated afterwards.
type RunConfig struct {
	Seed    int64
	Window  int
	Version string
}

// Load reads, parses, and validates the run configuration at path.
// The file is a flat mapping of scalar values (a restricted YAML
// subset); anything else fails structural validation.
func Load(path string) (RunConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return RunConfig{}, fault.New(fault.ConfigNotFound, "Configuration file not found: %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("failed to read run config: %w", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return RunConfig{}, fault.New(fault.ConfigMalformed, "Invalid configuration file structure: expected key-value pairs")
	}

	return Validate(doc)
}

// Validate checks the raw mapping for the required fields and their
// types. Presence of all fields is checked first, with every missing
// name reported at once; type checks then fail fast in a fixed order
// (seed, window, version). Values never coerce across types.
func Validate(raw map[string]interface{}) (RunConfig, error) {
	missing := make([]string, 0, len(requiredFields))
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return RunConfig{}, fault.New(fault.ConfigMissingFields,
			"Invalid configuration file structure: missing fields [%s]", strings.Join(missing, " "))
	}

	seed, ok := asInt(raw["seed"])
	if !ok {
		return RunConfig{}, fault.New(fault.ConfigTypeError, "Invalid configuration file structure: 'seed' must be an integer")
	}

	window, ok := asInt(raw["window"])
	if !ok || window <= 0 {
		return RunConfig{}, fault.New(fault.ConfigTypeError, "Invalid configuration file structure: 'window' must be a positive integer")
	}

	version, ok := raw["version"].(string)
	if !ok || strings.TrimSpace(version) == "" {
		return RunConfig{}, fault.New(fault.ConfigTypeError, "Invalid configuration file structure: 'version' must be a non-empty string")
	}

	return RunConfig{Seed: seed, Window: int(window), Version: version}, nil
}

// RecoverVersion re-reads the config on the error path so the report
// can still carry the configured version. It never fails: any load or
// validation problem falls back to DefaultVersion.
func RecoverVersion(path string) (version string) {
	version = DefaultVersion
	defer func() {
		_ = recover()
	}()
	if cfg, err := Load(path); err == nil {
		version = cfg.Version
	}
	return version
}

// asInt narrows a YAML scalar to an integer. Booleans are not
// integers, floats and strings never coerce.
func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
