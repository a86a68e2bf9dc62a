package domain

import (
	"fmt"
	"sort"

	"github.com/ougirez/shoplist/internal/pkg/constants"
)

type ShoppingListItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ShoppingList holds at most one item per product. Adding a product that is
// already present merges the quantities.
type ShoppingList struct {
	items map[int64]int
}

func NewShoppingList(items ...ShoppingListItem) (*ShoppingList, error) {
	l := &ShoppingList{items: make(map[int64]int, len(items))}
	for _, it := range items {
		if err := l.Add(it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *ShoppingList) Add(productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive, got %d", constants.ErrValidation, quantity)
	}
	l.ensure()
	l.items[productID] += quantity
	return nil
}

func (l *ShoppingList) Set(productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive, got %d", constants.ErrValidation, quantity)
	}
	l.ensure()
	l.items[productID] = quantity
	return nil
}

func (l *ShoppingList) Remove(productID int64) bool {
	if _, ok := l.items[productID]; !ok {
		return false
	}
	delete(l.items, productID)
	return true
}

func (l *ShoppingList) Contains(productID int64) bool {
	_, ok := l.items[productID]
	return ok
}

func (l *ShoppingList) Quantity(productID int64) int {
	return l.items[productID]
}

func (l *ShoppingList) Len() int {
	return len(l.items)
}

// Items returns the list ordered by product id.
func (l *ShoppingList) Items() []ShoppingListItem {
	res := make([]ShoppingListItem, 0, len(l.items))
	for id, qty := range l.items {
		res = append(res, ShoppingListItem{ProductID: id, Quantity: qty})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ProductID < res[j].ProductID })
	return res
}

func (l *ShoppingList) ProductIDs() []int64 {
	items := l.Items()
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	return ids
}

func (l *ShoppingList) Clone() *ShoppingList {
	c := &ShoppingList{items: make(map[int64]int, len(l.items))}
	for id, qty := range l.items {
		c.items[id] = qty
	}
	return c
}

func (l *ShoppingList) ensure() {
	if l.items == nil {
		l.items = make(map[int64]int)
	}
}
