package goadmin

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	dashboardpkg "github.com/goliatone/go-appinsights/pkg/dashboard"
)

// MenuBuilder ensures insights entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures navigation link metadata.
type MenuItem struct {
	Label    string `json:"label"`
	Route    string `json:"route"`
	Icon     string `json:"icon,omitempty"`
	Position int    `json:"position"`
}

// DefaultMenuItems lists the insights pages.
func DefaultMenuItems() []MenuItem {
	return []MenuItem{
		{Label: "Dashboard", Route: "admin.insights", Icon: "home", Position: 10},
		{Label: "Apps", Route: "admin.insights.apps", Icon: "grid", Position: 20},
		{Label: "Users", Route: "admin.insights.users", Icon: "users", Position: 30},
		{Label: "Chat Logs", Route: "admin.insights.logs", Icon: "message-circle", Position: 40},
		{Label: "Sales Comments", Route: "admin.insights.comments", Icon: "clipboard", Position: 50},
	}
}

// Config wires the insights service and its navigation into an admin shell.
type Config struct {
	EnableInsights bool
	MenuCode       string
	MenuBuilder    MenuBuilder
	Service        *dashboardpkg.Service
	MenuItems      []MenuItem
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg Config
}

// New creates an Admin helper that can seed insights menus.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableInsights && cfg.Service == nil {
		return nil, errors.New("goadmin: insights service is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if len(cfg.MenuItems) == 0 {
		cfg.MenuItems = DefaultMenuItems()
	}
	for i := range cfg.MenuItems {
		if cfg.MenuItems[i].Icon == "" {
			cfg.MenuItems[i].Icon = "circle"
		}
	}
	return &Admin{cfg: cfg}, nil
}

// Service exposes the configured insights service when enabled.
func (a *Admin) Service() *dashboardpkg.Service {
	if !a.cfg.EnableInsights {
		return nil
	}
	return a.cfg.Service
}

// MenuCode is the menu the entries are seeded into.
func (a *Admin) MenuCode() string {
	return a.cfg.MenuCode
}

// Bootstrap seeds menu entries when insights support is enabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableInsights || a.cfg.MenuBuilder == nil {
		return nil
	}
	var errs []error
	for _, item := range a.cfg.MenuItems {
		if item.Label == "" || item.Route == "" {
			continue
		}
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Menu is an in-process MenuBuilder. Items are keyed by route so seeding is
// idempotent.
type Menu struct {
	mu    sync.RWMutex
	menus map[string]map[string]MenuItem
}

// NewMenu builds an empty menu set.
func NewMenu() *Menu {
	return &Menu{menus: map[string]map[string]MenuItem{}}
}

// EnsureMenuItem satisfies MenuBuilder.
func (m *Menu) EnsureMenuItem(_ context.Context, menuCode string, item MenuItem) error {
	if menuCode == "" || item.Route == "" {
		return errors.New("goadmin: menu code and route are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.menus[menuCode]
	if !ok {
		items = map[string]MenuItem{}
		m.menus[menuCode] = items
	}
	items[item.Route] = item
	return nil
}

// Items returns the entries of menuCode ordered by position.
func (m *Menu) Items(menuCode string) []MenuItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MenuItem, 0, len(m.menus[menuCode]))
	for _, item := range m.menus[menuCode] {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position == out[j].Position {
			return out[i].Route < out[j].Route
		}
		return out[i].Position < out[j].Position
	})
	return slices.Clip(out)
}
