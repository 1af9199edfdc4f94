// Package navigation фильтрует дерево меню по роли и разрешает заголовки страниц.
package navigation

import (
	"errors"
	"fmt"

	"github.com/athebyme/travel-admin/internal/domain/models"
)

var (
	ErrEmptyKey     = errors.New("navigation entry has empty key")
	ErrEmptyLabel   = errors.New("navigation entry has empty label")
	ErrDuplicateKey = errors.New("duplicate navigation key")
)

// Validate проверяет уникальность ключей во всем дереве и наличие подписей
func Validate(tree models.NavTree) error {
	seen := make(map[string]struct{})
	return validateEntries(tree, seen)
}

func validateEntries(entries []models.NavEntry, seen map[string]struct{}) error {
	for _, e := range entries {
		if e.Key == "" {
			return ErrEmptyKey
		}
		if e.Label == "" {
			return fmt.Errorf("%w: %s", ErrEmptyLabel, e.Key)
		}
		if _, dup := seen[e.Key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, e.Key)
		}
		seen[e.Key] = struct{}{}

		if err := validateEntries(e.Children, seen); err != nil {
			return err
		}
	}
	return nil
}

// Clone возвращает глубокую копию дерева
func Clone(tree models.NavTree) models.NavTree {
	if tree == nil {
		return nil
	}
	out := make(models.NavTree, len(tree))
	for i, e := range tree {
		out[i] = cloneEntry(e)
	}
	return out
}

func cloneEntry(e models.NavEntry) models.NavEntry {
	c := e
	if e.Children != nil {
		c.Children = Clone(e.Children)
	}
	return c
}

// FindLabelByKey ищет в глубину первую запись с указанным ключом
// (включая вложенные) и возвращает ее подпись
func FindLabelByKey(key string, tree models.NavTree) (string, bool) {
	for _, e := range tree {
		if e.Key == key {
			return e.Label, true
		}
		if label, ok := FindLabelByKey(key, e.Children); ok {
			return label, true
		}
	}
	return "", false
}

// Leaves возвращает все маршрутизируемые ключи дерева в порядке обхода
func Leaves(tree models.NavTree) []models.NavEntry {
	var out []models.NavEntry
	for _, e := range tree {
		if e.IsGroup() {
			out = append(out, Leaves(e.Children)...)
			continue
		}
		out = append(out, e)
	}
	return out
}
