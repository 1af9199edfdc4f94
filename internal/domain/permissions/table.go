// Package permissions описывает возможности ролей декларативной таблицей.
// Обработчики не проверяют роли самостоятельно, а спрашивают таблицу.
package permissions

import (
	"sort"

	"github.com/athebyme/travel-admin/pkg/models"
)

// Action действие в back-office в формате "ресурс:операция"
type Action string

const (
	ActionAll Action = "*"

	DashboardRead       Action = "dashboard:read"
	TourWrite           Action = "tour:write"
	TourDelete          Action = "tour:delete"
	DestinationWrite    Action = "destination:write"
	DestinationDelete   Action = "destination:delete"
	BookingWrite        Action = "booking:write"
	BookingForceDelete  Action = "booking:force-delete"
	PartnerWrite        Action = "partner:write"
	PromotionWrite      Action = "promotion:write"
	BlogWrite           Action = "blog:write"
	ReviewModerate      Action = "review:moderate"
	CustomerManage      Action = "customer:manage"
	EmployeeManage      Action = "employee:manage"
	RoleManage          Action = "role:manage"
	ContactSettingsEdit Action = "contact:edit"
	AuditRead           Action = "audit:read"
)

// Table отображение роль -> разрешенные действия
type Table map[models.Role][]Action

// DefaultTable таблица прав back-office.
// Сотрудник управляет контентом и бронированиями, но не доступом,
// сотрудниками и окончательным удалением.
func DefaultTable() Table {
	return Table{
		models.RoleAdmin: {ActionAll},
		models.RoleStaff: {
			DashboardRead,
			TourWrite,
			DestinationWrite,
			BookingWrite,
			PartnerWrite,
			PromotionWrite,
			BlogWrite,
			ReviewModerate,
			CustomerManage,
			ContactSettingsEdit,
		},
	}
}

// Allowed сообщает, может ли роль выполнить действие.
// Роли без записи в таблице запрещено все.
func (t Table) Allowed(role models.Role, action Action) bool {
	for _, a := range t[role] {
		if a == ActionAll || a == action {
			return true
		}
	}
	return false
}

// Actions возвращает отсортированный список действий роли.
// Для роли с ActionAll возвращается полный каталог.
func (t Table) Actions(role models.Role) []Action {
	granted := t[role]
	for _, a := range granted {
		if a == ActionAll {
			return Catalog()
		}
	}

	out := append([]Action(nil), granted...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Catalog все известные действия
func Catalog() []Action {
	out := []Action{
		DashboardRead, TourWrite, TourDelete, DestinationWrite, DestinationDelete,
		BookingWrite, BookingForceDelete, PartnerWrite, PromotionWrite, BlogWrite,
		ReviewModerate, CustomerManage, EmployeeManage, RoleManage,
		ContactSettingsEdit, AuditRead,
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
