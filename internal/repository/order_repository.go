package repository

import (
	"cafeteria/internal/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	GetAll() ([]models.Order, error)
	GetActive() ([]models.Order, error)
	GetBySource(source string) ([]models.Order, error)
	UpdateFields(id string, fields map[string]interface{}) error
	// Orders are never deleted; there is intentionally no Delete.
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").First(&order, "order_number = ?", orderNumber).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Order("created_at desc").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetActive() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("status <> ?", models.OrderPickedUp).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetBySource(source string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("source = ?", source).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) UpdateFields(id string, fields map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}
