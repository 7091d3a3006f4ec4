// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aloria/backoffice/internal/app/system/invoice"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the back office.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: ALORIA_MONGO_URI, ALORIA_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "aloria", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "aloria-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Access tokens
	{Name: "token_secret", Default: "dev-only-token-secret-change-me-0123456789", Desc: "HS256 signing secret for access tokens (32+ bytes in production)"},
	{Name: "token_issuer", Default: "aloria-backoffice", Desc: "Access token issuer"},
	{Name: "token_ttl", Default: "24h", Desc: "Access token lifetime (e.g., 30m, 24h)"},

	// SuperAdmin bootstrap
	{Name: "superadmin_secret", Default: "", Desc: "Shared secret for /auth/create-superadmin (blank disables the endpoint)"},
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},

	// Email
	{Name: "mail_provider", Default: "log", Desc: "Email provider: 'sendgrid', 'smtp' or 'log'"},
	{Name: "sendgrid_api_key", Default: "", Desc: "SendGrid API key"},
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "no-reply@aloria-agency.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Aloria Agency", Desc: "From display name"},

	// Invoices
	{Name: "invoice_format", Default: invoice.FormatPDF, Desc: "Invoice artifact format: 'pdf' or 'png'"},
	{Name: "invoice_retry_interval", Default: "5m", Desc: "How often missing invoices are re-rendered (0 disables)"},

	// Invoice storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./data/invoices", Desc: "Local storage path for invoice files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "invoices/", Desc: "S3 key prefix"},

	// Links and branding
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of this API (invoice links)"},
	{Name: "login_url", Default: "http://localhost:3000/login", Desc: "Front-end sign-in page (welcome emails)"},
	{Name: "site_name", Default: "Aloria Agency", Desc: "Agency name used in emails"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "public_rate_limit", Default: 10, Desc: "Requests per minute per IP on public intake"},
}

// legacyEnv maps environment names used by earlier deployments to the keys
// they stand in for. They apply only when the ALORIA_ variable is unset.
var legacyEnv = []struct{ env, key string }{
	{"MONGO_URL", "mongo_uri"},
	{"DB_NAME", "mongo_database"},
	{"SENDGRID_API_KEY", "sendgrid_api_key"},
	{"SENDER_EMAIL", "mail_from"},
}

// applyLegacyEnv copies legacy variables onto their ALORIA_ names so the
// normal config precedence sees them.
func applyLegacyEnv(logger *zap.Logger) {
	for _, l := range legacyEnv {
		v, ok := os.LookupEnv(l.env)
		if !ok || v == "" {
			continue
		}
		prefixed := "ALORIA_" + strings.ToUpper(l.key)
		if _, set := os.LookupEnv(prefixed); set {
			continue
		}
		_ = os.Setenv(prefixed, v)
		logger.Info("using legacy environment variable", zap.String("env", l.env), zap.String("key", l.key))
	}
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, ALORIA_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	applyLegacyEnv(logger)

	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ALORIA", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		// Access tokens
		TokenSecret: appValues.String("token_secret"),
		TokenIssuer: appValues.String("token_issuer"),
		TokenTTL:    appValues.Duration("token_ttl", 24*time.Hour),

		// SuperAdmin
		SuperAdminSecret: appValues.String("superadmin_secret"),
		SuperAdminEmail:  appValues.String("superadmin_email"),

		// Email
		MailProvider:   strings.ToLower(appValues.String("mail_provider")),
		SendGridAPIKey: appValues.String("sendgrid_api_key"),
		MailSMTPHost:   appValues.String("mail_smtp_host"),
		MailSMTPPort:   appValues.Int("mail_smtp_port"),
		MailSMTPUser:   appValues.String("mail_smtp_user"),
		MailSMTPPass:   appValues.String("mail_smtp_pass"),
		MailFrom:       appValues.String("mail_from"),
		MailFromName:   appValues.String("mail_from_name"),

		// Invoices
		InvoiceFormat:        strings.ToLower(appValues.String("invoice_format")),
		InvoiceRetryInterval: appValues.Duration("invoice_retry_interval", 5*time.Minute),

		// Storage
		StorageType:      strings.ToLower(appValues.String("storage_type")),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageS3Region:  appValues.String("storage_s3_region"),
		StorageS3Bucket:  appValues.String("storage_s3_bucket"),
		StorageS3Prefix:  appValues.String("storage_s3_prefix"),

		// Links
		BaseURL:  strings.TrimRight(appValues.String("base_url"), "/"),
		LoginURL: appValues.String("login_url"),
		SiteName: appValues.String("site_name"),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		PublicRateLimit: appValues.Int("public_rate_limit"),
	}

	// A SendGrid key without an explicit provider selects SendGrid.
	if appCfg.MailProvider == "log" && appCfg.SendGridAPIKey != "" {
		appCfg.MailProvider = "sendgrid"
		logger.Info("sendgrid api key present; using sendgrid mail provider")
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateAppConfig(coreCfg.Env, appCfg)
}

// validateAppConfig checks the settings that do not need a live backend.
func validateAppConfig(env string, appCfg AppConfig) error {
	switch appCfg.InvoiceFormat {
	case invoice.FormatPDF, invoice.FormatPNG:
	default:
		return fmt.Errorf("invoice_format must be 'pdf' or 'png', got %q", appCfg.InvoiceFormat)
	}

	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageLocalPath == "" {
			return fmt.Errorf("storage_type 'local' requires storage_local_path")
		}
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			return fmt.Errorf("storage_type 's3' requires storage_s3_bucket and storage_s3_region")
		}
	default:
		return fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType)
	}

	switch appCfg.MailProvider {
	case "log":
	case "sendgrid":
		if appCfg.SendGridAPIKey == "" {
			return fmt.Errorf("mail_provider 'sendgrid' requires sendgrid_api_key")
		}
	case "smtp":
		if appCfg.MailSMTPHost == "" {
			return fmt.Errorf("mail_provider 'smtp' requires mail_smtp_host")
		}
	default:
		return fmt.Errorf("mail_provider must be 'sendgrid', 'smtp' or 'log', got %q", appCfg.MailProvider)
	}

	if appCfg.TokenSecret == "" {
		return fmt.Errorf("token_secret is required")
	}
	if env == "prod" && len(appCfg.TokenSecret) < 32 {
		return fmt.Errorf("token_secret must be at least 32 bytes in production")
	}
	if appCfg.PublicRateLimit < 1 {
		return fmt.Errorf("public_rate_limit must be at least 1")
	}

	// Both end up in emails; blank disables the link.
	for key, v := range map[string]string{"base_url": appCfg.BaseURL, "login_url": appCfg.LoginURL} {
		if v != "" && !urlutil.IsValidAbsHTTPURL(v) {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, v)
		}
	}
	return nil
}
