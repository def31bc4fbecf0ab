package repository

import (
	"cafeteria/internal/models"

	"gorm.io/gorm"
)

type MenuRepository interface {
	Create(item *models.MenuItem) error
	GetByID(id string) (*models.MenuItem, error)
	GetAll() ([]models.MenuItem, error)
	GetReady() ([]models.MenuItem, error)
	GetByCategory(category string) ([]models.MenuItem, error)
	Update(item *models.MenuItem) error
	Delete(id string) error
}

type menuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) Create(item *models.MenuItem) error {
	return r.db.Create(item).Error
}

func (r *menuRepository) GetByID(id string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *menuRepository) GetAll() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.Order("name").Find(&items).Error
	return items, err
}

func (r *menuRepository) GetReady() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.Where("ready = ?", true).Order("name").Find(&items).Error
	return items, err
}

func (r *menuRepository) GetByCategory(category string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.Where("category = ?", category).Order("name").Find(&items).Error
	return items, err
}

func (r *menuRepository) Update(item *models.MenuItem) error {
	return r.db.Save(item).Error
}

func (r *menuRepository) Delete(id string) error {
	return r.db.Delete(&models.MenuItem{}, "id = ?", id).Error
}
