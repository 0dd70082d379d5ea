package models

// Role groups permissions.
type Role struct {
	Base
	Title  string `json:"title" validate:"required,max=255"`
	Status bool   `json:"status"`
}

func (r *Role) TableName() string { return "roles" }
func (r *Role) Columns() []string { return []string{"title", "status"} }
func (r *Role) Values() []any     { return []any{r.Title, r.Status} }
func (r *Role) Fields() []any     { return []any{&r.Title, &r.Status} }
func (r *Role) SetDefaults()      { r.Status = true }

// RolePermission grants a role actions on a menu, or on one of its
// submenus when SubMenuID is set.
type RolePermission struct {
	Base
	RoleID    int64  `json:"role_id" validate:"required"`
	MenuID    int64  `json:"menu_id" validate:"required"`
	SubMenuID *int64 `json:"sub_menu_id"`
	CanView   bool   `json:"can_view"`
	CanEdit   bool   `json:"can_edit"`
	CanAdd    bool   `json:"can_add"`
	CanDel    bool   `json:"can_del"`
	CanStatus bool   `json:"can_status"`
}

func (p *RolePermission) TableName() string { return "role_permissions" }

func (p *RolePermission) Columns() []string {
	return []string{"role_id", "menu_id", "sub_menu_id", "can_view", "can_edit", "can_add", "can_del", "can_status"}
}

func (p *RolePermission) Values() []any {
	return []any{p.RoleID, p.MenuID, p.SubMenuID, p.CanView, p.CanEdit, p.CanAdd, p.CanDel, p.CanStatus}
}

func (p *RolePermission) Fields() []any {
	return []any{&p.RoleID, &p.MenuID, &p.SubMenuID, &p.CanView, &p.CanEdit, &p.CanAdd, &p.CanDel, &p.CanStatus}
}
