// Package main: service wiring.
package main

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/config"
	"github.com/akinalp/tenantgate/pkg/email"
	"github.com/akinalp/tenantgate/pkg/password"
	"github.com/akinalp/tenantgate/pkg/ratelimit"
	"github.com/akinalp/tenantgate/services"
)

// Services is the container of every service instance.
type Services struct {
	Auth           services.AuthService
	User           services.UserService
	Menu           services.MenuService
	Submenu        services.SubmenuService
	Role           services.RoleService
	RolePermission services.RolePermissionService
}

// RateLimiters holds the login limiter, which needs closing on shutdown,
// and the client IP resolution it keys on.
type RateLimiters struct {
	Login    *ratelimit.LoginRateLimiter
	ClientIP *ratelimit.IPExtractor
}

func initServices(repos *Repositories, cfg *config.Config, log *zap.Logger, clk clock.Clock) (*Services, *RateLimiters) {
	hasher := password.NewHasher(cfg.Security.BcryptCost, cfg.Security.HashConcurrency)

	var mailer email.Sender
	if cfg.Email.APIKey != "" {
		mailer = email.NewResendSender(cfg.Email.APIKey, cfg.Email.From, cfg.App.Name)
	} else {
		log.Warn("RESEND_API_KEY not set, emails will only be logged")
		mailer = email.NewLogSender(log)
	}

	userService := services.NewUserService(repos.User, hasher)
	authService := services.NewAuthService(
		userService,
		repos.User,
		repos.Session,
		repos.PasswordReset,
		repos.Tx,
		hasher,
		mailer,
		clk,
		log,
		services.AuthConfig{
			JWTSecret:     cfg.JWT.Secret,
			TokenTTL:      cfg.JWT.Expiry,
			ResetTokenTTL: cfg.Security.ResetTokenTTL,
			Issuer:        cfg.App.Name,
			FrontEndURL:   cfg.App.FrontEndURL,
		},
	)

	svcs := &Services{
		Auth:           authService,
		User:           userService,
		Menu:           services.NewMenuService(repos.Menu),
		Submenu:        services.NewSubmenuService(repos.Submenu, repos.Menu),
		Role:           services.NewRoleService(repos.Role),
		RolePermission: services.NewRolePermissionService(repos.RolePermission, repos.Role, repos.Menu, repos.Submenu),
	}

	limiters := &RateLimiters{
		Login:    ratelimit.NewLoginRateLimiter(cfg.Security.LoginAttempts, cfg.Security.LoginWindow, clk),
		ClientIP: ratelimit.NewIPExtractor(cfg.Security.TrustedProxies),
	}

	return svcs, limiters
}
