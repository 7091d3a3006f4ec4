// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	casesfeature "github.com/aloria/backoffice/internal/app/features/cases"
	clientsfeature "github.com/aloria/backoffice/internal/app/features/clients"
	contactmessagesfeature "github.com/aloria/backoffice/internal/app/features/contactmessages"
	dashboardfeature "github.com/aloria/backoffice/internal/app/features/dashboard"
	healthfeature "github.com/aloria/backoffice/internal/app/features/health"
	loginfeature "github.com/aloria/backoffice/internal/app/features/login"
	notificationsfeature "github.com/aloria/backoffice/internal/app/features/notifications"
	paymentsfeature "github.com/aloria/backoffice/internal/app/features/payments"
	profilefeature "github.com/aloria/backoffice/internal/app/features/profile"
	usersfeature "github.com/aloria/backoffice/internal/app/features/users"
	auditstore "github.com/aloria/backoffice/internal/app/store/audit"
	clientstore "github.com/aloria/backoffice/internal/app/store/clients"
	counterstore "github.com/aloria/backoffice/internal/app/store/counters"
	notificationstore "github.com/aloria/backoffice/internal/app/store/notifications"
	paymentstore "github.com/aloria/backoffice/internal/app/store/payments"
	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/artifacts"
	"github.com/aloria/backoffice/internal/app/system/auditlog"
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/app/system/invoice"
	"github.com/aloria/backoffice/internal/app/system/mailer"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/app/system/onboarding"
	"github.com/aloria/backoffice/internal/app/system/paymentflow"
	"github.com/aloria/backoffice/internal/app/system/ratelimit"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/txn"
	"github.com/aloria/backoffice/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Version is reported by /health. Set at build time with -ldflags.
var Version = "dev"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Every long-lived collaborator (token
// manager, mailer, artifact store, invoice renderer) is built here once and
// handed to the features that need it.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.TokenTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	tokens, err := auth.NewTokenManager(appCfg.TokenSecret, appCfg.TokenIssuer, appCfg.TokenTTL)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	m, err := buildMailer(appCfg, logger)
	if err != nil {
		logger.Error("mailer init failed", zap.Error(err))
		return nil, err
	}
	store, err := buildArtifactStore(appCfg)
	if err != nil {
		logger.Error("artifact store init failed", zap.Error(err))
		return nil, err
	}
	renderer, err := invoice.New(appCfg.InvoiceFormat)
	if err != nil {
		return nil, err
	}

	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	notifier := notify.New(notificationstore.New(db), logger)
	runner := txn.New(deps.MongoClient, logger)
	onboard := onboarding.New(db, runner, notifier, m, appCfg.SiteName, appCfg.LoginURL, logger)

	flow := &paymentflow.Service{
		Payments:  paymentstore.New(db),
		Clients:   clientstore.New(db),
		Users:     userstore.New(db),
		Counters:  counterstore.New(db),
		Renderer:  renderer,
		Artifacts: store,
		Notifier:  notifier,
		Mailer:    m,
		Audit:     audit,
		Issuer:    invoice.DefaultIssuer,
		SiteName:  appCfg.SiteName,
		BaseURL:   appCfg.BaseURL,
		Log:       logger,
	}
	if appCfg.InvoiceRetryInterval > 0 {
		startWorker(workers.NewInvoiceRetry(flow.Payments, flow, logger, appCfg.InvoiceRetryInterval, 20))
	}

	r := chi.NewRouter()

	// Resolve the caller from the bearer token or the session cookie.
	authn := &auth.Authenticator{
		Tokens:   tokens,
		Sessions: sessionMgr,
		Users:    userstore.NewFetcher(db),
		Log:      logger,
	}
	r.Use(authn.LoadUser)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Detail(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Detail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication and account settings
	loginLimiter := ratelimit.NewLoginLimiterWithConfig(appCfg.PublicRateLimit, time.Minute, 5, 5*time.Minute)
	loginHandler := loginfeature.NewHandler(db, tokens, sessionMgr, loginLimiter, audit, appCfg.SuperAdminSecret, logger)
	authRouter := loginfeature.Routes(loginHandler)
	profilefeature.MountRoutes(authRouter, profilefeature.NewHandler(db, audit, logger))
	r.Mount("/auth", authRouter)

	// Prospect pipeline; intake is public and rate limited per IP
	intake := ratelimit.New(appCfg.PublicRateLimit, time.Minute)
	prospectsHandler := contactmessagesfeature.NewHandler(db, onboard, notifier, audit, logger)
	r.Mount("/contact-messages", contactmessagesfeature.Routes(prospectsHandler, intake))

	// Clients and cases
	clientsHandler := clientsfeature.NewHandler(db, onboard, notifier, audit, logger)
	r.Mount("/clients", clientsfeature.Routes(clientsHandler))

	casesHandler := casesfeature.NewHandler(db, notifier, m, audit, appCfg.SiteName, logger)
	r.Mount("/cases", casesfeature.Routes(casesHandler))

	// Payments and invoices
	paymentsHandler := paymentsfeature.NewHandler(flow, logger)
	r.Mount("/payments", paymentsfeature.Routes(paymentsHandler))
	r.Mount("/invoices", paymentsfeature.InvoiceRoutes(paymentsHandler))

	// Notifications
	notificationsHandler := notificationsfeature.NewHandler(db, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

	// Staff accounts
	usersHandler := usersfeature.NewHandler(db, audit, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	// Dashboard totals
	dashboardHandler := dashboardfeature.NewHandler(db, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

	return r, nil
}

func buildMailer(appCfg AppConfig, logger *zap.Logger) (*mailer.Mailer, error) {
	var sender mailer.Sender
	switch appCfg.MailProvider {
	case "sendgrid":
		sg, err := mailer.NewSendGridSender(appCfg.SendGridAPIKey)
		if err != nil {
			return nil, err
		}
		sender = sg
	case "smtp":
		s, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host: appCfg.MailSMTPHost,
			Port: appCfg.MailSMTPPort,
			User: appCfg.MailSMTPUser,
			Pass: appCfg.MailSMTPPass,
		})
		if err != nil {
			return nil, err
		}
		sender = s
	default:
		sender = mailer.LogSender{Log: logger}
	}
	logger.Info("mailer configured", zap.String("provider", appCfg.MailProvider))
	return mailer.New(sender, mailer.Address{Email: appCfg.MailFrom, Name: appCfg.MailFromName}, logger), nil
}

func buildArtifactStore(appCfg AppConfig) (artifacts.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s, err := artifacts.NewS3(ctx, artifacts.S3Config{
			Region: appCfg.StorageS3Region,
			Bucket: appCfg.StorageS3Bucket,
			Prefix: appCfg.StorageS3Prefix,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "local":
		l, err := artifacts.NewLocal(appCfg.StorageLocalPath)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown storage_type %q", appCfg.StorageType)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Background workers                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type worker interface {
	Start()
	Stop()
}

var (
	workersMu sync.Mutex
	running   []worker
)

func startWorker(w worker) {
	workersMu.Lock()
	defer workersMu.Unlock()
	w.Start()
	running = append(running, w)
}

// stopWorkers stops every started worker, newest first.
func stopWorkers(logger *zap.Logger) {
	workersMu.Lock()
	defer workersMu.Unlock()
	for i := len(running) - 1; i >= 0; i-- {
		running[i].Stop()
	}
	if len(running) > 0 {
		logger.Info("background workers stopped", zap.Int("count", len(running)))
	}
	running = nil
}
