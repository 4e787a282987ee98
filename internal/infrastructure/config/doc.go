// Package config handles loading and validating Topic Lab configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Broker credentials live in connection profiles, not here
//   - The JWT secret and InfluxDB token should be set via environment variables
//   - Leaving security.jwt.secret empty disables API authentication; only do
//     that when the API listens on loopback
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Storage.Backend)
package config
