package user

import (
	"context"

	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/store"
)

type Service struct {
	store store.Store
}

func NewUserService(store store.Store) *Service {
	return &Service{store}
}

func (svc *Service) ListShoppingLists(ctx context.Context, userID string) ([]domain.ShoppingListRecord, error) {
	lists, err := svc.store.ListShoppingLists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []domain.ShoppingListRecord{}
	}

	return lists, nil
}
