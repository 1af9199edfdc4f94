package navigation

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/athebyme/travel-admin/internal/domain/models"
	"gopkg.in/yaml.v3"
)

//go:embed menu.yaml
var defaultMenu []byte

// DefaultTree возвращает встроенное дерево навигации
func DefaultTree() (models.NavTree, error) {
	return ParseTree(defaultMenu)
}

// LoadTree читает дерево из YAML-файла; пустой путь означает встроенное дерево
func LoadTree(path string) (models.NavTree, error) {
	if path == "" {
		return DefaultTree()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла навигации: %w", err)
	}
	return ParseTree(data)
}

// ParseTree разбирает и проверяет дерево навигации
func ParseTree(data []byte) (models.NavTree, error) {
	var tree models.NavTree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("ошибка разбора дерева навигации: %w", err)
	}
	if err := Validate(tree); err != nil {
		return nil, fmt.Errorf("некорректное дерево навигации: %w", err)
	}
	return tree, nil
}
