package services

import (
	"context"
	"fmt"

	"github.com/athebyme/travel-admin/internal/domain/appstate"
	"github.com/athebyme/travel-admin/internal/domain/models"
	"github.com/athebyme/travel-admin/internal/domain/navigation"
	"github.com/athebyme/travel-admin/internal/domain/permissions"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	pkgmodels "github.com/athebyme/travel-admin/pkg/models"
)

// NavigationService отдает меню по роли и ведет текущий заголовок страницы
type NavigationService struct {
	tree   models.NavTree
	rules  navigation.Rules
	titles appstate.TitleStore
	table  permissions.Table
	logger interfaces.LoggerPort
}

func NewNavigationService(
	tree models.NavTree,
	rules navigation.Rules,
	titles appstate.TitleStore,
	table permissions.Table,
	logger interfaces.LoggerPort,
) *NavigationService {
	return &NavigationService{
		tree:   tree,
		rules:  rules,
		titles: titles,
		table:  table,
		logger: logger.WithField("component", "navigation"),
	}
}

// Menu дерево навигации, видимое роли пользователя
func (s *NavigationService) Menu(p *pkgmodels.Principal) models.NavTree {
	return s.rules.Filter(s.tree, p.Role)
}

// ResolveTitle ищет подпись маршрута только в меню роли,
// поэтому скрытые разделы не раскрываются
func (s *NavigationService) ResolveTitle(p *pkgmodels.Principal, path string) (string, bool) {
	return navigation.FindLabelByKey(path, s.Menu(p))
}

// SelectPage запоминает заголовок выбранного маршрута
func (s *NavigationService) SelectPage(ctx context.Context, p *pkgmodels.Principal, path string) (string, error) {
	title, ok := s.ResolveTitle(p, path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}

	if err := s.titles.SetTitle(ctx, p.UserID, title); err != nil {
		return "", fmt.Errorf("failed to store title: %w", err)
	}

	s.logger.DebugWithContext(ctx, "Текущая страница изменена",
		interfaces.LogField{Key: "path", Value: path},
		interfaces.LogField{Key: "title", Value: title})
	return title, nil
}

// CurrentTitle последний выбранный заголовок пользователя
func (s *NavigationService) CurrentTitle(ctx context.Context, p *pkgmodels.Principal) (string, error) {
	return s.titles.Title(ctx, p.UserID)
}

// Permissions действия, разрешенные роли пользователя
func (s *NavigationService) Permissions(p *pkgmodels.Principal) []permissions.Action {
	return s.table.Actions(p.Role)
}
