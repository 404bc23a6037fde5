package main

import "time"

// Defaults for CLI commands.
const (
	DefaultAuditLimit = 50
	ShutdownTimeout   = 10 * time.Second
)

// Valid output formats for record commands.
var validFormats = []string{"table", "json"}
