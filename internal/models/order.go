package models

import (
	"errors"
	"time"
)

type Order struct {
	ID             string      `json:"id" gorm:"primaryKey"`
	OrderNumber    string      `json:"order_number" gorm:"unique;not null"`
	CustomerName   string      `json:"customer_name"`
	PhoneNumber    string      `json:"phone_number"`
	Items          []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	Total          int         `json:"total" gorm:"not null"`
	Status         string      `json:"status" gorm:"default:'pending'"`
	Source         string      `json:"source"`
	PaymentStatus  string      `json:"payment_status" gorm:"default:'PENDING'"`
	ZenoPayOrderID string      `json:"zeno_pay_order_id"`
	PaidAt         *time.Time  `json:"paid_at"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	OrderID    string `json:"order_id" gorm:"not null;index"`
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name" gorm:"not null"`
	Quantity   int    `json:"quantity" gorm:"not null"`
	Price      int    `json:"price" gorm:"not null"`
	Total      int    `json:"total" gorm:"not null"`
}

// Fulfillment lifecycle. Transitions only move forward; terminal
// states are never reverted.
const (
	OrderPending        = "pending"
	OrderOrdered        = "ordered"
	OrderPaid           = "paid"
	OrderFailed         = "failed"
	OrderReadyForPickup = "ready_for_pickup"
	OrderPickedUp       = "picked_up"
)

// Payment sub-state, independent of fulfillment status.
const (
	PaymentPending = "PENDING"
	PaymentSuccess = "SUCCESS"
	PaymentFailed  = "FAILED"
	PaymentTimeout = "TIMEOUT"
)

const (
	SourceStudentPortal = "student_portal"
	SourceKiosk         = "kiosk"
	SourceCashier       = "cashier"
)

const (
	ActorSystem  = "system"
	ActorCashier = "cashier"
)

// Transition defines a valid fulfillment state change and who can
// perform it.
type Transition struct {
	From  string
	To    string
	Actor string
}

var validTransitions = []Transition{
	// Payment reconciliation advances or fails a pending order
	{From: OrderPending, To: OrderPaid, Actor: ActorSystem},
	{From: OrderPending, To: OrderFailed, Actor: ActorSystem},
	// Cashier-entered orders skip payment and go straight to fulfillment
	{From: OrderOrdered, To: OrderReadyForPickup, Actor: ActorCashier},
	// Cashier fulfillment flow
	{From: OrderPaid, To: OrderReadyForPickup, Actor: ActorCashier},
	{From: OrderPending, To: OrderReadyForPickup, Actor: ActorCashier},
	{From: OrderReadyForPickup, To: OrderPickedUp, Actor: ActorCashier},
}

type transitionKey struct {
	From  string
	To    string
	Actor string
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state.
func ValidTransitionsFrom(status string) []string {
	var nexts []string
	seen := map[string]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move an order from one
// fulfillment state to another.
func CanTransition(from, to, actor string) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return errors.New("invalid transition: " + from + " -> " + to +
		" is not allowed for actor '" + actor + "'")
}

// IsTerminalStatus reports whether a fulfillment state admits no
// further transitions.
func IsTerminalStatus(status string) bool {
	return len(ValidTransitionsFrom(status)) == 0
}
