// Package toolchain locates and runs the external programs the pipeline delegates to:
// the frame decoder, the telemetry extractor and the metadata writer.
package toolchain

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Resolve returns the configured binary path when set, otherwise looks the runtime up.
func Resolve(configured, runtime string) (string, error) {
	if configured == "" {
		return FindRuntime(runtime)
	}

	stat, err := os.Stat(configured)
	if err != nil {
		return "", NewRuntimeError(runtime, fmt.Sprintf("configured binary %s", configured), err)
	}
	if stat.IsDir() {
		return "", NewRuntimeError(runtime, fmt.Sprintf("configured binary %s is a directory", configured), nil)
	}
	return configured, nil
}

// Duration is a time.Duration that reads from YAML and JSON as "30s", "2m" and so on.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("toolchain.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalJSON(bytes []byte) error {
	var v string
	if err := json.Unmarshal(bytes, &v); err != nil {
		return err
	}

	duration, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("toolchain.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d Duration) Validate() error {
	if time.Duration(d) < 0 {
		return fmt.Errorf("toolchain.Duration: must not be negative: %s", time.Duration(d))
	}
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
