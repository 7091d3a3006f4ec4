// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// The struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: aloria-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Access tokens
	TokenSecret string // HS256 signing secret
	TokenIssuer string
	TokenTTL    time.Duration

	// SuperAdmin bootstrap
	SuperAdminSecret string // shared secret for POST /auth/create-superadmin; blank disables it
	SuperAdminEmail  string // promoted or created on startup

	// Email
	MailProvider   string // "sendgrid", "smtp" or "log"
	SendGridAPIKey string
	MailSMTPHost   string
	MailSMTPPort   int
	MailSMTPUser   string
	MailSMTPPass   string
	MailFrom       string // From email address (e.g., no-reply@aloria-agency.com)
	MailFromName   string // From display name (e.g., Aloria Agency)

	// Invoices
	InvoiceFormat        string // "pdf" or "png"
	InvoiceRetryInterval time.Duration

	// Invoice artifact storage
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage directory (e.g., "./data/invoices")

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region string // AWS region
	StorageS3Bucket string // S3 bucket name
	StorageS3Prefix string // Key prefix (e.g., "invoices/")

	// Base URL of this API, used for invoice links in emails and responses
	BaseURL string // e.g., "https://api.aloria-agency.com" or "http://localhost:8080"
	// LoginURL is where the front end signs clients in; sent in welcome emails.
	LoginURL string
	SiteName string

	// Audit logging
	AuditLogAuth  string
	AuditLogAdmin string

	// PublicRateLimit is requests per minute per IP on public intake.
	PublicRateLimit int
}
