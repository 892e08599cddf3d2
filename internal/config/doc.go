// Package config handles configuration loading for bako-api.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults for session timing.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${BAKO_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  session_ttl: "15m"
//	  max_clock_skew: "5m"
//	  replay_window: "10m"
//	  sweep_interval: "1h"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:3000"
//
// Database:
//
//	database:
//	  path: "/var/lib/bako/api.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${BAKO_JWT_SECRET}"  # Required
//	  session_ttl: "15m"                # Sliding session window
//	  max_clock_skew: "5m"              # Sign-in timestamp tolerance
//
// Role defaults override (optional TOML file):
//
//	permissions:
//	  defaults_path: "/etc/bako/roles.toml"
//
// Member notifications:
//
//	notify:
//	  enabled: true
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/bako/api.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
