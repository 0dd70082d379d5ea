package services

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/repository"
)

type (
	MenuService           = CRUDService[models.Menu, *models.Menu]
	SubmenuService        = CRUDService[models.Submenu, *models.Submenu]
	RoleService           = CRUDService[models.Role, *models.Role]
	RolePermissionService = CRUDService[models.RolePermission, *models.RolePermission]
)

// NewMenuService returns the service for back-office menus. Titles are
// unique per tenant.
func NewMenuService(menus repository.CRUDRepository[models.Menu, *models.Menu]) MenuService {
	return NewCRUDService(menus, CRUDOptions[models.Menu, *models.Menu]{
		Info:    EntityInfo{Name: "Menu", Plural: "menus", Code: "MENU"},
		OrderBy: []string{"order_index", "id"},
		Unique: func(m *models.Menu) sq.Sqlizer {
			return sq.Eq{"title": m.Title}
		},
		StatusColumn: "status",
	})
}

// NewSubmenuService returns the service for submenus. Titles are unique
// within their parent menu, which must exist.
func NewSubmenuService(
	submenus repository.CRUDRepository[models.Submenu, *models.Submenu],
	menus repository.CRUDRepository[models.Menu, *models.Menu],
) SubmenuService {
	return NewCRUDService(submenus, CRUDOptions[models.Submenu, *models.Submenu]{
		Info:    EntityInfo{Name: "Submenu", Plural: "submenus", Code: "SUBMENU"},
		OrderBy: []string{"menu_id", "order_index", "id"},
		Unique: func(s *models.Submenu) sq.Sqlizer {
			return sq.Eq{"menu_id": s.MenuID, "title": s.Title}
		},
		Check: func(ctx context.Context, s *models.Submenu) error {
			return requireRef(ctx, menus, s.MenuID, "menu_id", "MENU")
		},
		StatusColumn: "status",
	})
}

func NewRoleService(roles repository.CRUDRepository[models.Role, *models.Role]) RoleService {
	return NewCRUDService(roles, CRUDOptions[models.Role, *models.Role]{
		Info: EntityInfo{Name: "Role", Plural: "roles", Code: "ROLE"},
		Unique: func(r *models.Role) sq.Sqlizer {
			return sq.Eq{"title": r.Title}
		},
		StatusColumn: "status",
	})
}

// NewRolePermissionService returns the service for role grants. A role has
// at most one grant per menu, or per submenu when sub_menu_id is set.
func NewRolePermissionService(
	perms repository.CRUDRepository[models.RolePermission, *models.RolePermission],
	roles repository.CRUDRepository[models.Role, *models.Role],
	menus repository.CRUDRepository[models.Menu, *models.Menu],
	submenus repository.CRUDRepository[models.Submenu, *models.Submenu],
) RolePermissionService {
	return NewCRUDService(perms, CRUDOptions[models.RolePermission, *models.RolePermission]{
		Info:    EntityInfo{Name: "Permission", Plural: "permissions", Code: "PERMISSION"},
		OrderBy: []string{"role_id", "menu_id", "id"},
		Unique: func(p *models.RolePermission) sq.Sqlizer {
			// sq.Eq renders a nil pointer as IS NULL.
			return sq.Eq{"role_id": p.RoleID, "menu_id": p.MenuID, "sub_menu_id": p.SubMenuID}
		},
		Check: func(ctx context.Context, p *models.RolePermission) error {
			if err := requireRef(ctx, roles, p.RoleID, "role_id", "ROLE"); err != nil {
				return err
			}
			if err := requireRef(ctx, menus, p.MenuID, "menu_id", "MENU"); err != nil {
				return err
			}
			if p.SubMenuID == nil {
				return nil
			}
			sub, err := submenus.GetByID(ctx, *p.SubMenuID)
			if errors.Is(err, pkg.ErrNotFound) {
				return refNotFound("sub_menu_id", "SUBMENU", *p.SubMenuID)
			}
			if err != nil {
				return internal("PERMISSION_FETCH_FAILED", err)
			}
			if sub.MenuID != p.MenuID {
				return pkg.NewValidationError([]pkg.FieldError{{
					Field:   "sub_menu_id",
					Message: "Submenu does not belong to the given menu.",
				}})
			}
			return nil
		},
	})
}

type existenceChecker interface {
	Exists(ctx context.Context, where sq.Sqlizer) (bool, error)
}

func requireRef(ctx context.Context, repo existenceChecker, id int64, field, code string) error {
	ok, err := repo.Exists(ctx, sq.Eq{"id": id})
	if err != nil {
		return internal(code+"_FETCH_FAILED", err)
	}
	if !ok {
		return refNotFound(field, code, id)
	}
	return nil
}

func refNotFound(field, code string, id int64) error {
	return &pkg.AppError{
		Kind:    pkg.KindNotFound,
		Code:    code + "_NOT_FOUND",
		Message: fmt.Sprintf("Referenced %s %d not found.", field, id),
		Fields:  []pkg.FieldError{{Field: field, Message: "not found"}},
	}
}
