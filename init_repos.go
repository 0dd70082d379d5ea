// Package main: repository wiring.
//
// Repositories hold no connection of their own: they resolve the tenant's
// client from the registry on every call, so one set serves every tenant.
package main

import (
	"github.com/benbjohnson/clock"

	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/repository"
)

// Repositories is the container of every repository instance.
type Repositories struct {
	User           repository.UserRepository
	Session        repository.SessionRepository
	PasswordReset  repository.PasswordResetRepository
	Menu           repository.CRUDRepository[models.Menu, *models.Menu]
	Submenu        repository.CRUDRepository[models.Submenu, *models.Submenu]
	Role           repository.CRUDRepository[models.Role, *models.Role]
	RolePermission repository.CRUDRepository[models.RolePermission, *models.RolePermission]
	Tx             repository.Transactor
}

func initRepositories(conns repository.ConnSource, clk clock.Clock) *Repositories {
	return &Repositories{
		User:           repository.NewUserRepo(conns, clk),
		Session:        repository.NewSessionRepo(conns, clk),
		PasswordReset:  repository.NewPasswordResetRepo(conns),
		Menu:           repository.NewCRUDRepository[models.Menu, *models.Menu](conns, clk),
		Submenu:        repository.NewCRUDRepository[models.Submenu, *models.Submenu](conns, clk),
		Role:           repository.NewCRUDRepository[models.Role, *models.Role](conns, clk),
		RolePermission: repository.NewCRUDRepository[models.RolePermission, *models.RolePermission](conns, clk),
		Tx:             repository.NewTransactor(conns),
	}
}
