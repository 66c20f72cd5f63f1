// Package confloader loads configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (GRR_ prefix, "__" between levels)
//  3. Configuration file (YAML)
//  4. Values already present in the target struct
//
// Watcher reports changes to a configuration file so a running server can
// re-apply the settings that are safe to change live.
package confloader
