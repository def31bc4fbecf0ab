package services

import (
	"fmt"
	"log"
	"time"

	"cafeteria/internal/models"
	"cafeteria/internal/repository"

	"github.com/google/uuid"
)

// OrderEventPublisher notifies subscribers that an order was written.
type OrderEventPublisher interface {
	PublishOrderEvent(orderID string) error
}

type OrderService interface {
	CreateOrder(source, customerName, phoneNumber string, items []models.CartItem) (*models.Order, error)
	GetOrderByID(id string) (*models.Order, error)
	GetOrderByNumber(orderNumber string) (*models.Order, error)
	GetAllOrders() ([]models.Order, error)
	GetActiveOrders() ([]models.Order, error)
	UpdateStatus(id, to, actor string) error
	MarkReadyForPickup(id string) error
	MarkPickedUp(id string) error
	RecordGatewayID(orderID, zenoPayOrderID string) error
	RecordPaymentSuccess(orderID, customerName, phoneNumber string, paidAt time.Time) error
	RecordPaymentFailure(orderID string) error
	RecordPaymentTimeout(orderID string) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	events    OrderEventPublisher
}

func NewOrderService(orderRepo repository.OrderRepository, events OrderEventPublisher) OrderService {
	return &orderService{orderRepo: orderRepo, events: events}
}

// generateOrderNumber builds a short human-readable number from the
// last six digits of the current epoch milliseconds. Collisions under
// concurrent load are possible; the unique index on order_number turns
// one into an explicit create error instead of a silent overwrite.
func generateOrderNumber() string {
	millis := fmt.Sprintf("%d", time.Now().UnixMilli())
	return "ORD" + millis[len(millis)-6:]
}

func (s *orderService) CreateOrder(source, customerName, phoneNumber string, items []models.CartItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// Cashier-entered orders skip payment and enter fulfillment directly
	status := models.OrderPending
	if source == models.SourceCashier {
		status = models.OrderOrdered
	}

	order := &models.Order{
		ID:            uuid.NewString(),
		OrderNumber:   generateOrderNumber(),
		CustomerName:  customerName,
		PhoneNumber:   phoneNumber,
		Total:         models.CartTotal(items),
		Status:        status,
		Source:        source,
		PaymentStatus: models.PaymentPending,
	}
	for _, item := range items {
		order.Items = append(order.Items, models.OrderItem{
			OrderID:    order.ID,
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Total:      item.Price * item.Quantity,
		})
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	s.publish(order.ID)
	return order, nil
}

func (s *orderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

func (s *orderService) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	return s.orderRepo.GetByOrderNumber(orderNumber)
}

func (s *orderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

func (s *orderService) GetActiveOrders() ([]models.Order, error) {
	return s.orderRepo.GetActive()
}

func (s *orderService) UpdateStatus(id, to, actor string) error {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return err
	}

	if err := models.CanTransition(order.Status, to, actor); err != nil {
		return err
	}

	if err := s.orderRepo.UpdateFields(id, map[string]interface{}{"status": to}); err != nil {
		return err
	}

	s.publish(id)
	return nil
}

func (s *orderService) MarkReadyForPickup(id string) error {
	return s.UpdateStatus(id, models.OrderReadyForPickup, models.ActorCashier)
}

func (s *orderService) MarkPickedUp(id string) error {
	return s.UpdateStatus(id, models.OrderPickedUp, models.ActorCashier)
}

func (s *orderService) RecordGatewayID(orderID, zenoPayOrderID string) error {
	err := s.orderRepo.UpdateFields(orderID, map[string]interface{}{
		"zeno_pay_order_id": zenoPayOrderID,
	})
	if err != nil {
		return err
	}
	s.publish(orderID)
	return nil
}

func (s *orderService) RecordPaymentSuccess(orderID, customerName, phoneNumber string, paidAt time.Time) error {
	err := s.orderRepo.UpdateFields(orderID, map[string]interface{}{
		"payment_status": models.PaymentSuccess,
		"status":         models.OrderPaid,
		"paid_at":        paidAt,
		"customer_name":  customerName,
		"phone_number":   phoneNumber,
	})
	if err != nil {
		return err
	}
	s.publish(orderID)
	return nil
}

func (s *orderService) RecordPaymentFailure(orderID string) error {
	err := s.orderRepo.UpdateFields(orderID, map[string]interface{}{
		"payment_status": models.PaymentFailed,
	})
	if err != nil {
		return err
	}
	s.publish(orderID)
	return nil
}

func (s *orderService) RecordPaymentTimeout(orderID string) error {
	// Payment status stays PENDING for later manual reconciliation;
	// only the fulfillment record is touched, so this is a no-op write
	// kept for the event notification.
	s.publish(orderID)
	return nil
}

func (s *orderService) publish(orderID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(orderID); err != nil {
		log.Printf("Warning: failed to publish order event for %s: %v", orderID, err)
	}
}
