package models

// NavEntry узел дерева навигации.
// Листья (без детей) соответствуют маршрутам, группы никогда не маршрутизируются.
type NavEntry struct {
	Key      string     `json:"key" yaml:"key"`
	Label    string     `json:"label" yaml:"label"`
	Icon     string     `json:"icon,omitempty" yaml:"icon,omitempty"`
	Children []NavEntry `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsGroup сообщает, является ли узел группой
func (e NavEntry) IsGroup() bool {
	return len(e.Children) > 0
}

// NavTree упорядоченный список верхнеуровневых пунктов меню
type NavTree []NavEntry
