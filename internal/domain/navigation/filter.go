package navigation

import (
	"github.com/athebyme/travel-admin/internal/domain/models"
	pkgmodels "github.com/athebyme/travel-admin/pkg/models"
)

// Ключи веток, которые скрываются от сотрудников
const (
	KeyAuthorization  = "authorization"
	KeyUserManagement = "user-management"
	KeyEmployeeList   = "/users/employees"
	KeyCustomerList   = "/users/customers"
)

// Visibility описывает, что видит роль
type Visibility struct {
	// All - роль видит дерево целиком
	All bool
	// Hidden - ключи, удаляемые вместе с потомками
	Hidden []string
}

// Rules таблица видимости по ролям. Роли без записи не видят ничего.
type Rules map[pkgmodels.Role]Visibility

// DefaultRules правила back-office: администратор видит все, сотрудник
// не видит управление доступом и список сотрудников
func DefaultRules() Rules {
	return Rules{
		pkgmodels.RoleAdmin: {All: true},
		pkgmodels.RoleStaff: {Hidden: []string{KeyAuthorization, KeyEmployeeList}},
	}
}

// FilterByRole применяет DefaultRules
func FilterByRole(tree models.NavTree, role pkgmodels.Role) models.NavTree {
	return DefaultRules().Filter(tree, role)
}

// Filter возвращает новое дерево, видимое роли. Входное дерево не изменяется.
// Группа, потерявшая всех детей, удаляется рекурсивно.
func (r Rules) Filter(tree models.NavTree, role pkgmodels.Role) models.NavTree {
	v, ok := r[role]
	if !ok {
		return models.NavTree{}
	}
	if v.All {
		return Clone(tree)
	}

	hidden := make(map[string]struct{}, len(v.Hidden))
	for _, k := range v.Hidden {
		hidden[k] = struct{}{}
	}

	return filterEntries(tree, hidden)
}

func filterEntries(entries []models.NavEntry, hidden map[string]struct{}) models.NavTree {
	out := make(models.NavTree, 0, len(entries))
	for _, e := range entries {
		if _, skip := hidden[e.Key]; skip {
			continue
		}
		if !e.IsGroup() {
			out = append(out, cloneEntry(e))
			continue
		}

		children := filterEntries(e.Children, hidden)
		if len(children) == 0 {
			continue
		}
		c := e
		c.Children = children
		out = append(out, c)
	}
	return out
}
