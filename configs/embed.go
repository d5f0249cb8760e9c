// Package configs embeds the templates written by `dbadvisor config init`.
//
// Templates:
//   - user-config.example.yaml: settings for every project on this machine
//   - project-config.example.yaml: .dbadvisor.yaml next to an admin tool install
//   - catalog.example.yaml: advisory text overrides
//
// Settings precedence (see internal/config Load):
//  1. Hardcoded defaults
//  2. User config (~/.config/dbadvisor/config.yaml)
//  3. Project config (.dbadvisor.yaml)
//  4. Environment variables (DBADVISOR_*)
package configs

import _ "embed"

// UserConfigTemplate is written to ~/.config/dbadvisor/config.yaml.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is written to .dbadvisor.yaml by
// `dbadvisor config init --project`.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string

// CatalogTemplate lists every advisory text that a catalog file can
// override.
//
//go:embed catalog.example.yaml
var CatalogTemplate string
