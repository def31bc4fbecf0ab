package services

import (
	"encoding/json"
	"testing"
	"time"

	"cafeteria/internal/models"
)

func paidOrder() *models.Order {
	paidAt := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)
	return &models.Order{
		ID:            "order-1",
		OrderNumber:   "ORD123456",
		CustomerName:  "John",
		PhoneNumber:   "0712345678",
		Total:         5000,
		Status:        models.OrderPaid,
		PaymentStatus: models.PaymentSuccess,
		PaidAt:        &paidAt,
		CreatedAt:     paidAt.Add(-2 * time.Minute),
		Items: []models.OrderItem{
			{Name: "Ugali with Beef Stew", Quantity: 1, Price: 3500, Total: 3500},
			{Name: "Fresh Juice", Quantity: 1, Price: 1500, Total: 1500},
		},
	}
}

func TestBuildPayloadShape(t *testing.T) {
	orders := newFakeOrderService()
	svc := NewQRService(orders)

	payload, err := svc.BuildPayload(paidOrder())
	if err != nil {
		t.Fatal(err)
	}

	if payload.OrderNumber != "ORD123456" || payload.OrderID != "order-1" {
		t.Errorf("payload ids = (%s, %s)", payload.OrderNumber, payload.OrderID)
	}
	if payload.Customer.Name != "John" || payload.Customer.Phone != "0712345678" {
		t.Errorf("payload customer = %+v", payload.Customer)
	}
	if payload.Payment.Total != 5000 || payload.Payment.Currency != "TZS" || payload.Payment.Status != models.PaymentSuccess {
		t.Errorf("payload payment = %+v", payload.Payment)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("payload items = %d, want 2", len(payload.Items))
	}
	if payload.Meta.Version != "1.0" || payload.Meta.Type != "cafeteria_order" || payload.Meta.Generated == "" {
		t.Errorf("payload meta = %+v", payload.Meta)
	}
}

func TestResolveStructuredPayload(t *testing.T) {
	orders := newFakeOrderService()
	created, err := orders.CreateOrder(models.SourceStudentPortal, "John", "0712345678", testCart())
	if err != nil {
		t.Fatal(err)
	}
	svc := NewQRService(orders)

	payload, err := svc.BuildPayload(created)
	if err != nil {
		t.Fatal(err)
	}
	scanned, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := svc.Resolve(string(scanned))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolved.ID != created.ID {
		t.Errorf("resolved order %s, want %s", resolved.ID, created.ID)
	}
}

func TestResolveBareOrderNumber(t *testing.T) {
	orders := newFakeOrderService()
	created, err := orders.CreateOrder(models.SourceKiosk, "John", "0712345678", testCart())
	if err != nil {
		t.Fatal(err)
	}
	svc := NewQRService(orders)

	resolved, err := svc.Resolve("  " + created.OrderNumber + "\n")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolved.ID != created.ID {
		t.Errorf("resolved order %s, want %s", resolved.ID, created.ID)
	}
}

func TestResolveUnknownOrderFails(t *testing.T) {
	svc := NewQRService(newFakeOrderService())
	if _, err := svc.Resolve("ORD000000"); err == nil {
		t.Error("Resolve of unknown order number succeeded")
	}
}
