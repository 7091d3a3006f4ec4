// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/authutil"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, logger); err != nil {
			return fmt.Errorf("ensure superadmin: %w", err)
		}
	}
	return nil
}

// ensureSuperAdmin makes sure the account for email exists, is active and
// holds the SUPERADMIN role. A missing account is created with a temporary
// password that is logged once and must be changed at first sign-in.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == models.RoleSuperAdmin && u.IsActive() {
			logger.Debug("superadmin already present", zap.String("email", email))
			return nil
		}
		if err := users.SetRoleAndActivate(ctx, u.ID, models.RoleSuperAdmin); err != nil {
			return err
		}
		logger.Info("promoted user to superadmin",
			zap.String("email", email),
			zap.String("previous_role", u.Role))
		return nil

	case errors.Is(err, mongo.ErrNoDocuments):
		temp, err := authutil.GenerateTempPassword()
		if err != nil {
			return err
		}
		hash, err := authutil.HashPassword(temp)
		if err != nil {
			return err
		}
		created, err := users.Create(ctx, models.User{
			FullName:           "Super Admin",
			Email:              email,
			Role:               models.RoleSuperAdmin,
			PasswordHash:       hash,
			MustChangePassword: true,
		})
		if err != nil {
			return err
		}
		logger.Warn("created superadmin with a temporary password; change it at first sign-in",
			zap.String("email", email),
			zap.String("user_id", created.ID.Hex()),
			zap.String("temporary_password", temp))
		return nil

	default:
		return err
	}
}
