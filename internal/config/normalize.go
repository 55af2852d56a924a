package config

const (
	// DefaultPort is the standard Modbus TCP port.
	DefaultPort = 502

	// DefaultConnectTimeoutMs bounds the TCP dial.
	DefaultConnectTimeoutMs = 5000

	// DefaultResponseTimeoutMs bounds one request/response round trip.
	DefaultResponseTimeoutMs = 2000
)

// Normalize applies post-validation defaults. It is allowed to mutate
// configuration and MUST be called only after Validate().
func Normalize(f *File) {
	if f == nil {
		return
	}

	for name, p := range f.Profiles {
		if p.Port == 0 {
			p.Port = DefaultPort
		}
		if p.ConnectTimeoutMs == 0 {
			p.ConnectTimeoutMs = DefaultConnectTimeoutMs
		}
		if p.ResponseTimeoutMs == 0 {
			p.ResponseTimeoutMs = DefaultResponseTimeoutMs
		}
		// Slave id is deliberately not defaulted.
		f.Profiles[name] = p
	}
}
