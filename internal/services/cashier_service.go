package services

import (
	"time"

	"cafeteria/internal/models"
	"cafeteria/internal/repository"

	"github.com/google/uuid"
)

type CashierService interface {
	CreateCashier(cashier *models.Cashier) error
	GetCashierByID(id string) (*models.Cashier, error)
	GetAllCashiers() ([]models.Cashier, error)
	GetActiveCashiers() ([]models.Cashier, error)
	UpdateCashier(cashier *models.Cashier) error
	SetActive(id string, active bool) (*models.Cashier, error)
	DeleteCashier(id string) error
}

type cashierService struct {
	cashierRepo repository.CashierRepository
}

func NewCashierService(cashierRepo repository.CashierRepository) CashierService {
	return &cashierService{cashierRepo: cashierRepo}
}

func (s *cashierService) CreateCashier(cashier *models.Cashier) error {
	if cashier.ID == "" {
		cashier.ID = uuid.NewString()
	}
	if cashier.JoinDate.IsZero() {
		cashier.JoinDate = time.Now()
	}
	return s.cashierRepo.Create(cashier)
}

func (s *cashierService) GetCashierByID(id string) (*models.Cashier, error) {
	return s.cashierRepo.GetByID(id)
}

func (s *cashierService) GetAllCashiers() ([]models.Cashier, error) {
	return s.cashierRepo.GetAll()
}

func (s *cashierService) GetActiveCashiers() ([]models.Cashier, error) {
	return s.cashierRepo.GetActive()
}

func (s *cashierService) UpdateCashier(cashier *models.Cashier) error {
	return s.cashierRepo.Update(cashier)
}

func (s *cashierService) SetActive(id string, active bool) (*models.Cashier, error) {
	cashier, err := s.cashierRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	cashier.Active = active
	if err := s.cashierRepo.Update(cashier); err != nil {
		return nil, err
	}
	return cashier, nil
}

func (s *cashierService) DeleteCashier(id string) error {
	return s.cashierRepo.Delete(id)
}
