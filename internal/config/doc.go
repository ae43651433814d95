// Package config handles configuration loading for authgate.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion, or entirely from AUTHGATE_* environment variables via FromEnv
// for containerized deployments. The package provides validation and falls
// back to the core-service endpoint defaults for anything unset.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	cache:
//	  redis_password: "${AUTHGATE_REDIS_PASSWORD}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Runtime environment (development disables the introspection cache):
//
//	environment: "production"   # production, development
//
// Authority endpoints (unset values fall back to core-service defaults):
//
//	authority:
//	  introspect_url: "http://core-service:3000/auth/introspect"
//	  permission_url: "http://core-service:3000/auth/check-permission"
//	  role_url: "http://core-service:3000/auth/check-role"
//	  timeout: "5s"
//
// Introspection cache backend:
//
//	cache:
//	  backend: "memory"   # memory, redis
//	  redis_addr: "localhost:6379"
//
// Decision audit log (empty path disables auditing):
//
//	audit:
//	  path: "/var/lib/authgate/audit.db"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
