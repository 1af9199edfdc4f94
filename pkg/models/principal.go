package models

// Role классифицирует уровень доступа пользователя
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// knownRoles в порядке убывания привилегий
var knownRoles = []Role{RoleAdmin, RoleStaff, RoleCustomer}

// HighestRole выбирает самую привилегированную известную роль из списка.
// Если ни одна роль не известна, возвращается пустая роль.
func HighestRole(roles []string) Role {
	for _, known := range knownRoles {
		for _, r := range roles {
			if Role(r) == known {
				return known
			}
		}
	}
	return ""
}

// Principal текущий пользователь, извлеченный из токена.
// Только для чтения: источник роли для фильтра меню и таблицы прав.
type Principal struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}
