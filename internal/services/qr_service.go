package services

import (
	"encoding/json"
	"strings"
	"time"

	"cafeteria/internal/models"
)

// QRPayload is the JSON embedded in a pickup QR code. The image
// encoding itself is handled by the frontends; this service only
// builds and resolves the payload.
type QRPayload struct {
	OrderNumber string     `json:"orderNumber"`
	OrderID     string     `json:"orderId"`
	Status      string     `json:"status"`
	Timestamp   string     `json:"timestamp"`
	Customer    QRCustomer `json:"customer"`
	Payment     QRPayment  `json:"payment"`
	Items       []QRItem   `json:"items"`
	Meta        QRMeta     `json:"meta"`
}

type QRCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type QRPayment struct {
	Total     int    `json:"total"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type QRItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
	Total    int    `json:"total"`
}

type QRMeta struct {
	Version   string `json:"version"`
	Type      string `json:"type"`
	Generated string `json:"generated"`
}

type QRService interface {
	BuildPayload(order *models.Order) (*QRPayload, error)
	// Resolve accepts either a structured payload or a bare order
	// number and looks up the matching order.
	Resolve(scanned string) (*models.Order, error)
}

type qrService struct {
	orders OrderService
}

func NewQRService(orders OrderService) QRService {
	return &qrService{orders: orders}
}

func (s *qrService) BuildPayload(order *models.Order) (*QRPayload, error) {
	paidAt := ""
	if order.PaidAt != nil {
		paidAt = order.PaidAt.Format(time.RFC3339)
	}

	payload := &QRPayload{
		OrderNumber: order.OrderNumber,
		OrderID:     order.ID,
		Status:      order.Status,
		Timestamp:   order.CreatedAt.Format(time.RFC3339),
		Customer: QRCustomer{
			Name:  order.CustomerName,
			Phone: order.PhoneNumber,
		},
		Payment: QRPayment{
			Total:     order.Total,
			Currency:  "TZS",
			Status:    order.PaymentStatus,
			Timestamp: paidAt,
		},
		Meta: QRMeta{
			Version:   "1.0",
			Type:      "cafeteria_order",
			Generated: time.Now().Format(time.RFC3339),
		},
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, QRItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Total:    item.Total,
		})
	}

	return payload, nil
}

func (s *qrService) Resolve(scanned string) (*models.Order, error) {
	scanned = strings.TrimSpace(scanned)

	var payload QRPayload
	if err := json.Unmarshal([]byte(scanned), &payload); err == nil {
		if payload.OrderNumber != "" {
			return s.orders.GetOrderByNumber(payload.OrderNumber)
		}
		if payload.OrderID != "" {
			return s.orders.GetOrderByID(payload.OrderID)
		}
	}

	// Not structured JSON: treat the scan as a bare order number
	return s.orders.GetOrderByNumber(scanned)
}
