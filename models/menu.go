package models

// Menu is a navigation entry of the back office.
type Menu struct {
	Base
	Title      string `json:"title" validate:"required,max=255"`
	Icon       string `json:"icon" validate:"max=255"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
	Route      string `json:"route" validate:"max=255"`
	Status     bool   `json:"status"`
	Type       string `json:"type" validate:"max=50"`
}

func (m *Menu) TableName() string { return "menus" }

func (m *Menu) Columns() []string {
	return []string{"title", "icon", "order_index", "route", "status", "type"}
}

func (m *Menu) Values() []any {
	return []any{m.Title, m.Icon, m.OrderIndex, m.Route, m.Status, m.Type}
}

func (m *Menu) Fields() []any {
	return []any{&m.Title, &m.Icon, &m.OrderIndex, &m.Route, &m.Status, &m.Type}
}

func (m *Menu) SetDefaults() { m.Status = true }

// Submenu is a child entry of a Menu.
type Submenu struct {
	Base
	MenuID     int64  `json:"menu_id" validate:"required"`
	Title      string `json:"title" validate:"required,max=255"`
	Icon       string `json:"icon" validate:"max=255"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
	Route      string `json:"route" validate:"max=255"`
	Status     bool   `json:"status"`
}

func (s *Submenu) TableName() string { return "submenus" }

func (s *Submenu) Columns() []string {
	return []string{"menu_id", "title", "icon", "order_index", "route", "status"}
}

func (s *Submenu) Values() []any {
	return []any{s.MenuID, s.Title, s.Icon, s.OrderIndex, s.Route, s.Status}
}

func (s *Submenu) Fields() []any {
	return []any{&s.MenuID, &s.Title, &s.Icon, &s.OrderIndex, &s.Route, &s.Status}
}

func (s *Submenu) SetDefaults() { s.Status = true }

// StatusRequest is the body of every PATCH .../{id}/status route.
type StatusRequest struct {
	Status *bool `json:"status" validate:"required"`
}
