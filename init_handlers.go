// Package main: handler wiring.
package main

import (
	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/handlers"
	"github.com/akinalp/tenantgate/models"
)

// Handlers is the container of every handler instance.
type Handlers struct {
	Auth           *handlers.AuthHandler
	User           *handlers.UserHandler
	Menu           *handlers.CRUDHandler[models.Menu, *models.Menu]
	Submenu        *handlers.CRUDHandler[models.Submenu, *models.Submenu]
	Role           *handlers.CRUDHandler[models.Role, *models.Role]
	RolePermission *handlers.CRUDHandler[models.RolePermission, *models.RolePermission]
	Health         *handlers.HealthHandler
}

func initHandlers(svcs *Services, limiters *RateLimiters, tenants func() int, log *zap.Logger) *Handlers {
	return &Handlers{
		Auth:           handlers.NewAuthHandler(svcs.Auth, limiters.Login, limiters.ClientIP, log),
		User:           handlers.NewUserHandler(svcs.User, svcs.Auth, log),
		Menu:           handlers.NewCRUDHandler(svcs.Menu, log),
		Submenu:        handlers.NewCRUDHandler(svcs.Submenu, log),
		Role:           handlers.NewCRUDHandler(svcs.Role, log),
		RolePermission: handlers.NewCRUDHandler(svcs.RolePermission, log),
		Health:         handlers.NewHealthHandler(tenants),
	}
}
