// Package migration holds the database schema.
package migration

import _ "embed"

// Create builds a fresh database.
//
//go:embed create-tables.sql
var Create string
