package services

import (
	"time"

	"cafeteria/internal/models"
)

// CartStore is the persistence slot behind a device's cart. Backed by
// Redis in production; tests use an in-memory map.
type CartStore interface {
	SetCart(deviceID string, items []models.CartItem, ttl time.Duration) error
	GetCart(deviceID string) ([]models.CartItem, error)
	DeleteCart(deviceID string) error
}

type CartService interface {
	GetCart(deviceID string) ([]models.CartItem, error)
	AddItem(deviceID string, item models.MenuItem) error
	RemoveItem(deviceID, itemID string) error
	SetQuantity(deviceID, itemID string, quantity int) error
	Clear(deviceID string) error
	Total(deviceID string) (int, error)
	ItemCount(deviceID string) (int, error)
}

type cartService struct {
	store CartStore
	ttl   time.Duration
}

func NewCartService(store CartStore, ttl time.Duration) CartService {
	return &cartService{store: store, ttl: ttl}
}

func (s *cartService) GetCart(deviceID string) ([]models.CartItem, error) {
	return s.store.GetCart(deviceID)
}

// AddItem inserts the item with quantity 1, or increments it by 1 if
// already present. Ready=false enforcement is the caller's job.
func (s *cartService) AddItem(deviceID string, item models.MenuItem) error {
	items, err := s.store.GetCart(deviceID)
	if err != nil {
		return err
	}

	found := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		items = append(items, models.CartItem{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			Category:    item.Category,
			Ready:       item.Ready,
			Image:       item.Image,
			Quantity:    1,
		})
	}

	return s.store.SetCart(deviceID, items, s.ttl)
}

// RemoveItem decrements the item's quantity by 1 and drops the entry
// when it reaches zero. The cart never holds a zero-quantity entry.
func (s *cartService) RemoveItem(deviceID, itemID string) error {
	items, err := s.store.GetCart(deviceID)
	if err != nil {
		return err
	}

	result := items[:0]
	for _, item := range items {
		if item.ID == itemID {
			item.Quantity--
			if item.Quantity <= 0 {
				continue
			}
		}
		result = append(result, item)
	}

	return s.store.SetCart(deviceID, result, s.ttl)
}

// SetQuantity sets an entry's quantity exactly; zero or negative
// deletes the entry.
func (s *cartService) SetQuantity(deviceID, itemID string, quantity int) error {
	items, err := s.store.GetCart(deviceID)
	if err != nil {
		return err
	}

	result := items[:0]
	for _, item := range items {
		if item.ID == itemID {
			if quantity <= 0 {
				continue
			}
			item.Quantity = quantity
		}
		result = append(result, item)
	}

	return s.store.SetCart(deviceID, result, s.ttl)
}

func (s *cartService) Clear(deviceID string) error {
	return s.store.DeleteCart(deviceID)
}

func (s *cartService) Total(deviceID string) (int, error) {
	items, err := s.store.GetCart(deviceID)
	if err != nil {
		return 0, err
	}
	return models.CartTotal(items), nil
}

func (s *cartService) ItemCount(deviceID string) (int, error) {
	items, err := s.store.GetCart(deviceID)
	if err != nil {
		return 0, err
	}
	return models.CartItemCount(items), nil
}
