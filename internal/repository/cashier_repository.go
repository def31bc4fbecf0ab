package repository

import (
	"cafeteria/internal/models"

	"gorm.io/gorm"
)

type CashierRepository interface {
	Create(cashier *models.Cashier) error
	GetByID(id string) (*models.Cashier, error)
	GetAll() ([]models.Cashier, error)
	GetActive() ([]models.Cashier, error)
	Update(cashier *models.Cashier) error
	Delete(id string) error
}

type cashierRepository struct {
	db *gorm.DB
}

func NewCashierRepository(db *gorm.DB) CashierRepository {
	return &cashierRepository{db: db}
}

func (r *cashierRepository) Create(cashier *models.Cashier) error {
	return r.db.Create(cashier).Error
}

func (r *cashierRepository) GetByID(id string) (*models.Cashier, error) {
	var cashier models.Cashier
	err := r.db.First(&cashier, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cashier, nil
}

func (r *cashierRepository) GetAll() ([]models.Cashier, error) {
	var cashiers []models.Cashier
	err := r.db.Order("name").Find(&cashiers).Error
	return cashiers, err
}

func (r *cashierRepository) GetActive() ([]models.Cashier, error) {
	var cashiers []models.Cashier
	err := r.db.Where("active = ?", true).Order("name").Find(&cashiers).Error
	return cashiers, err
}

func (r *cashierRepository) Update(cashier *models.Cashier) error {
	return r.db.Save(cashier).Error
}

func (r *cashierRepository) Delete(id string) error {
	return r.db.Delete(&models.Cashier{}, "id = ?", id).Error
}
