package config

import "fmt"

// Validate checks profile correctness. It performs declarative
// validation only and MUST NOT mutate configuration.
func Validate(f *File) error {
	for name, p := range f.Profiles {
		if p.Host == "" {
			return fmt.Errorf("profile %q: host is required", name)
		}
		if p.Port < 0 || p.Port > 65535 {
			return fmt.Errorf("profile %q: port %d out of range", name, p.Port)
		}
		if p.Slave != nil && (*p.Slave < 0 || *p.Slave > 255) {
			return fmt.Errorf("profile %q: slave id %d out of range 0-255", name, *p.Slave)
		}
		if p.ConnectTimeoutMs < 0 {
			return fmt.Errorf("profile %q: connect_timeout_ms must not be negative", name)
		}
		if p.ResponseTimeoutMs < 0 {
			return fmt.Errorf("profile %q: response_timeout_ms must not be negative", name)
		}
	}
	return nil
}
