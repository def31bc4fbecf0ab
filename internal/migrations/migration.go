package migrations

import (
	"log"
	"time"

	"cafeteria/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunMigrations creates the schema and seeds default data. Tables are
// never dropped: orders are an audit trail and must survive restarts.
func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.MenuItem{},
		&models.Category{},
		&models.Order{},
		&models.OrderItem{},
		&models.Cashier{},
	)
	if err != nil {
		return err
	}

	if err := createDefaultData(db); err != nil {
		log.Printf("Warning: Failed to create default data: %v", err)
	}

	log.Println("Database migrations completed successfully!")
	return nil
}

// createDefaultData seeds the starter menu, categories and one cashier
// when the tables are empty.
func createDefaultData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Default data already present, skipping seed")
		return nil
	}

	log.Println("Creating default data...")

	categories := []models.Category{
		{ID: uuid.NewString(), Name: "Main Course", Description: "Full meals", Active: true},
		{ID: uuid.NewString(), Name: "Beverages", Description: "Hot and cold drinks", Active: true},
		{ID: uuid.NewString(), Name: "Snacks", Description: "Light bites", Active: true},
	}
	if err := db.Create(&categories).Error; err != nil {
		return err
	}

	menuItems := []models.MenuItem{
		{ID: uuid.NewString(), Name: "Ugali with Beef Stew", Description: "Traditional Tanzanian meal with tender beef", Price: 3500, Category: "Main Course", Ready: true},
		{ID: uuid.NewString(), Name: "Rice with Chicken", Description: "Steamed rice served with grilled chicken", Price: 4000, Category: "Main Course", Ready: true},
		{ID: uuid.NewString(), Name: "Chapati with Beans", Description: "Soft chapati with spiced beans", Price: 2500, Category: "Main Course", Ready: true},
		{ID: uuid.NewString(), Name: "Fresh Juice", Description: "Mixed tropical fruit juice", Price: 1500, Category: "Beverages", Ready: true},
		{ID: uuid.NewString(), Name: "Tea/Coffee", Description: "Hot tea or coffee", Price: 1000, Category: "Beverages", Ready: true},
		{ID: uuid.NewString(), Name: "Mandazi", Description: "Traditional fried dough snack", Price: 500, Category: "Snacks", Ready: false},
	}
	if err := db.Create(&menuItems).Error; err != nil {
		return err
	}

	cashier := models.Cashier{
		ID:       uuid.NewString(),
		Name:     "Grace Mwangi",
		Email:    "grace@cafeteria.local",
		Phone:    "0712000001",
		Shift:    "morning",
		Active:   true,
		JoinDate: time.Now(),
	}
	if err := db.Create(&cashier).Error; err != nil {
		return err
	}

	log.Println("Default data created successfully!")
	return nil
}
