// Package config loads named target profiles for the CLI: host, port,
// slave id and timeouts under a profile name, so repeated invocations
// against the same device do not re-type the whole flag set.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level profiles document.
type File struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile is one named target. Slave is a pointer on purpose: there is
// no default slave id anywhere, a profile either states it or the caller
// passes --slave.
type Profile struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Slave             *int   `yaml:"slave"`
	ConnectTimeoutMs  int    `yaml:"connect_timeout_ms"`
	ResponseTimeoutMs int    `yaml:"response_timeout_ms"`
}

// Load reads and parses a profiles file. Callers run Validate and then
// Normalize on the result before use.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	return &f, nil
}

// Lookup returns the named profile.
func (f *File) Lookup(name string) (Profile, error) {
	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}
