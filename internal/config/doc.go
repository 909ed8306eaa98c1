// Package config provides configuration loading and validation for the
// simulated device binary. It handles YAML-based configuration with struct
// validation for the client instance, gateway endpoint, metrics, and logging.
package config
