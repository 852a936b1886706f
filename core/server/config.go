package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB is the maximum accepted request body size in megabytes.
	// Bulk catalog uploads can be large, so this is tunable.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"32"`
}

// BodyLimitBytes returns the body limit in bytes, with a sane floor.
func (c Config) BodyLimitBytes() int {
	mb := c.BodyLimitMB
	if mb <= 0 {
		mb = 4
	}
	return mb * 1024 * 1024
}
