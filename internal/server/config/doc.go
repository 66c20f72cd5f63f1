// Package config defines the configuration shared by api-server and the
// shells.
//
//   - spec.go: Config struct definition (koanf tags)
//   - default.go: Default configuration values
//   - verify.go: Validation
//
// Values are loaded by internal/infra/confloader from defaults, a YAML
// file, GRR_* environment variables and flag overrides, in that order.
package config
