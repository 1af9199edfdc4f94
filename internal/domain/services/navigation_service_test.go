package services

import (
	"context"
	"errors"
	"testing"

	"github.com/athebyme/travel-admin/internal/adapters/logger"
	"github.com/athebyme/travel-admin/internal/domain/appstate"
	"github.com/athebyme/travel-admin/internal/domain/navigation"
	"github.com/athebyme/travel-admin/internal/domain/permissions"
	pkgmodels "github.com/athebyme/travel-admin/pkg/models"
)

func newNavigationService(t *testing.T) *NavigationService {
	t.Helper()
	tree, err := navigation.DefaultTree()
	if err != nil {
		t.Fatalf("DefaultTree: %v", err)
	}
	return NewNavigationService(tree, navigation.DefaultRules(), appstate.NewMemoryTitleStore(),
		permissions.DefaultTable(), logger.NewNopLogger())
}

func TestSelectPageStoresTitle(t *testing.T) {
	ctx := context.Background()
	svc := newNavigationService(t)
	admin := &pkgmodels.Principal{UserID: "a1", Role: pkgmodels.RoleAdmin}

	leaf := navigation.Leaves(svc.Menu(admin))[0]
	title, err := svc.SelectPage(ctx, admin, leaf.Key)
	if err != nil {
		t.Fatalf("SelectPage: %v", err)
	}
	if title != leaf.Label {
		t.Errorf("title = %q, want %q", title, leaf.Label)
	}
	if got, _ := svc.CurrentTitle(ctx, admin); got != leaf.Label {
		t.Errorf("CurrentTitle = %q, want %q", got, leaf.Label)
	}
}

func TestSelectPageHiddenRoute(t *testing.T) {
	ctx := context.Background()
	svc := newNavigationService(t)
	staff := &pkgmodels.Principal{UserID: "s1", Role: pkgmodels.RoleStaff}

	if _, err := svc.SelectPage(ctx, staff, navigation.KeyEmployeeList); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("error = %v, want ErrUnknownRoute", err)
	}
	if got, _ := svc.CurrentTitle(ctx, staff); got != "" {
		t.Errorf("title changed to %q after rejected selection", got)
	}

	if _, ok := svc.ResolveTitle(staff, navigation.KeyCustomerList); !ok {
		t.Error("customer list should resolve for staff")
	}
}

func TestMenuUnknownRoleEmpty(t *testing.T) {
	svc := newNavigationService(t)
	menu := svc.Menu(&pkgmodels.Principal{UserID: "c1", Role: pkgmodels.RoleCustomer})
	if menu == nil || len(menu) != 0 {
		t.Errorf("menu = %v, want empty non-nil", menu)
	}
	if got := svc.Permissions(&pkgmodels.Principal{Role: pkgmodels.RoleCustomer}); len(got) != 0 {
		t.Errorf("customer permissions = %v", got)
	}
}
