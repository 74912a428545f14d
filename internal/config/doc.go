// Package config manages application configuration for the o2gather API.
//
// The config package loads and validates configuration from environment variables.
// All configuration is centralized here to provide a single source of truth.
//
// # Configuration Loading
//
// Configuration is loaded from environment variables:
//
//	cfg := config.Load()
//
// # Configuration Groups
//
// Configuration is organized into logical groups:
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS origins)
//   - DatabaseConfig: SurrealDB connection settings
//   - GoogleConfig: Google sign-in settings
//   - SessionConfig: session cookie settings
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT           - HTTP server port (default: 8080)
//	SERVER_ENV            - development, production, or test
//	LOG_LEVEL             - debug, info, warn, or error (default: info)
//	RATE_LIMIT_RPM        - requests per minute per client (default: 100)
//	RATE_LIMIT_BURST      - extra burst allowance (default: 20)
//	DB_HOST, DB_PORT      - SurrealDB endpoint
//	DB_USER, DB_PASSWORD  - database credentials
//	DB_NAMESPACE, DB_DATABASE - namespace and database names
//	GOOGLE_CLIENT_ID      - Google OAuth client ID (required)
//	GOOGLE_CLIENT_SECRET  - required for the authorization-code flow
//	GOOGLE_REDIRECT_URL   - callback URL for the authorization-code flow
//	SESSION_SECRET        - cookie signing secret (32+ bytes in production)
//	SESSION_TTL           - session lifetime (default: 168h)
//	SESSION_SECURE        - mark cookies Secure (required in production)
//
// Sensible defaults are provided for development; Validate reports every
// missing or invalid value at once.
package config
