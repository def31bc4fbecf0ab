package services

import (
	"log"
	"time"

	"cafeteria/internal/models"
	"cafeteria/internal/repository"

	"github.com/google/uuid"
)

// MenuCache is the read-through cache in front of the menu table.
// Backed by Redis in production.
type MenuCache interface {
	SetMenuCache(items []models.MenuItem, ttl time.Duration) error
	GetMenuCache() ([]models.MenuItem, error)
	InvalidateMenuCache() error
}

type MenuService interface {
	GetMenu() ([]models.MenuItem, error)
	GetReadyMenu() ([]models.MenuItem, error)
	GetMenuItem(id string) (*models.MenuItem, error)
	CreateMenuItem(item *models.MenuItem) error
	UpdateMenuItem(item *models.MenuItem) error
	SetReady(id string, ready bool) (*models.MenuItem, error)
	DeleteMenuItem(id string) error

	GetCategories() ([]models.Category, error)
	GetActiveCategories() ([]models.Category, error)
	CreateCategory(category *models.Category) error
	UpdateCategory(category *models.Category) error
	SetCategoryActive(id string, active bool) (*models.Category, error)
}

type menuService struct {
	menuRepo     repository.MenuRepository
	categoryRepo repository.CategoryRepository
	cache        MenuCache
	cacheTTL     time.Duration
}

func NewMenuService(menuRepo repository.MenuRepository, categoryRepo repository.CategoryRepository, cache MenuCache, cacheTTL time.Duration) MenuService {
	return &menuService{
		menuRepo:     menuRepo,
		categoryRepo: categoryRepo,
		cache:        cache,
		cacheTTL:     cacheTTL,
	}
}

// GetMenu serves from the cache when possible and fills it on a miss.
func (s *menuService) GetMenu() ([]models.MenuItem, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetMenuCache(); err == nil {
			return cached, nil
		}
	}

	items, err := s.menuRepo.GetAll()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetMenuCache(items, s.cacheTTL); err != nil {
			log.Printf("Warning: failed to update menu cache: %v", err)
		}
	}

	return items, nil
}

// GetReadyMenu returns only items open for ordering; admin and cashier
// views use GetMenu instead.
func (s *menuService) GetReadyMenu() ([]models.MenuItem, error) {
	items, err := s.GetMenu()
	if err != nil {
		return nil, err
	}

	ready := items[:0:0]
	for _, item := range items {
		if item.Ready {
			ready = append(ready, item)
		}
	}
	return ready, nil
}

func (s *menuService) GetMenuItem(id string) (*models.MenuItem, error) {
	return s.menuRepo.GetByID(id)
}

func (s *menuService) CreateMenuItem(item *models.MenuItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if err := s.menuRepo.Create(item); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *menuService) UpdateMenuItem(item *models.MenuItem) error {
	if err := s.menuRepo.Update(item); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *menuService) SetReady(id string, ready bool) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	item.Ready = ready
	if err := s.menuRepo.Update(item); err != nil {
		return nil, err
	}
	s.invalidate()
	return item, nil
}

func (s *menuService) DeleteMenuItem(id string) error {
	if err := s.menuRepo.Delete(id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *menuService) GetCategories() ([]models.Category, error) {
	return s.categoryRepo.GetAll()
}

func (s *menuService) GetActiveCategories() ([]models.Category, error) {
	return s.categoryRepo.GetActive()
}

func (s *menuService) CreateCategory(category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	return s.categoryRepo.Create(category)
}

func (s *menuService) UpdateCategory(category *models.Category) error {
	return s.categoryRepo.Update(category)
}

func (s *menuService) SetCategoryActive(id string, active bool) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	category.Active = active
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *menuService) invalidate() {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateMenuCache(); err != nil {
		log.Printf("Warning: failed to invalidate menu cache: %v", err)
	}
}
