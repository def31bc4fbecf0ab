package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cafeteria/internal/models"
	"cafeteria/pkg/zenopay"
)

// fakeOrderService records calls; CreateOrder mirrors the real
// service's initial order shape.
type fakeOrderService struct {
	mu sync.Mutex

	createErr error
	created   []*models.Order

	gatewayIDs      map[string]string
	successOrderIDs []string
	successName     string
	successPhone    string
	failureOrderIDs []string
	timeoutOrderIDs []string
}

func newFakeOrderService() *fakeOrderService {
	return &fakeOrderService{gatewayIDs: make(map[string]string)}
}

func (f *fakeOrderService) CreateOrder(source, customerName, phoneNumber string, items []models.CartItem) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	order := &models.Order{
		ID:            fmt.Sprintf("order-%d", len(f.created)+1),
		OrderNumber:   fmt.Sprintf("ORD%06d", len(f.created)+1),
		CustomerName:  customerName,
		PhoneNumber:   phoneNumber,
		Total:         models.CartTotal(items),
		Status:        models.OrderPending,
		Source:        source,
		PaymentStatus: models.PaymentPending,
	}
	f.created = append(f.created, order)
	return order, nil
}

func (f *fakeOrderService) GetOrderByID(id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.created {
		if order.ID == id {
			return order, nil
		}
	}
	return nil, errors.New("order not found")
}

func (f *fakeOrderService) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.created {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, errors.New("order not found")
}

func (f *fakeOrderService) GetAllOrders() ([]models.Order, error)    { return nil, nil }
func (f *fakeOrderService) GetActiveOrders() ([]models.Order, error) { return nil, nil }
func (f *fakeOrderService) UpdateStatus(id, to, actor string) error  { return nil }
func (f *fakeOrderService) MarkReadyForPickup(id string) error       { return nil }
func (f *fakeOrderService) MarkPickedUp(id string) error             { return nil }

func (f *fakeOrderService) RecordGatewayID(orderID, zenoPayOrderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gatewayIDs[orderID] = zenoPayOrderID
	return nil
}

func (f *fakeOrderService) RecordPaymentSuccess(orderID, customerName, phoneNumber string, paidAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successOrderIDs = append(f.successOrderIDs, orderID)
	f.successName = customerName
	f.successPhone = phoneNumber
	return nil
}

func (f *fakeOrderService) RecordPaymentFailure(orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failureOrderIDs = append(f.failureOrderIDs, orderID)
	return nil
}

func (f *fakeOrderService) RecordPaymentTimeout(orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeoutOrderIDs = append(f.timeoutOrderIDs, orderID)
	return nil
}

func (f *fakeOrderService) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// fakeGateway scripts gateway responses per status call.
type fakeGateway struct {
	mu sync.Mutex

	payErr     error
	payResp    *zenopay.PaymentResponse
	payCalls   int
	lastPayReq zenopay.PaymentRequest

	// statusFn is invoked with the 1-based call number
	statusFn    func(call int) (*zenopay.StatusResponse, error)
	statusCalls int
}

func (g *fakeGateway) Pay(payment zenopay.PaymentRequest) (*zenopay.PaymentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payCalls++
	g.lastPayReq = payment
	if g.payErr != nil {
		return nil, g.payErr
	}
	if g.payResp != nil {
		return g.payResp, nil
	}
	return &zenopay.PaymentResponse{
		Success: true,
		Message: zenopay.Envelope{OrderID: "ZP-1", Message: "Payment initiated"},
	}, nil
}

func (g *fakeGateway) CheckPaymentStatus(orderID string) (*zenopay.StatusResponse, error) {
	g.mu.Lock()
	g.statusCalls++
	call := g.statusCalls
	fn := g.statusFn
	g.mu.Unlock()
	if fn == nil {
		return &zenopay.StatusResponse{Success: true, Message: zenopay.Envelope{PaymentStatus: "PENDING"}}, nil
	}
	return fn(call)
}

func (g *fakeGateway) calls() (pay, status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.payCalls, g.statusCalls
}

type callbackCounter struct {
	mu       sync.Mutex
	success  int
	failure  int
	timeout  int
	orderID  string
	name     string
	phone    string
	failMsg  string
}

func (c *callbackCounter) callbacks() Callbacks {
	return Callbacks{
		OnSuccess: func(orderID, customerName, phoneNumber string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.success++
			c.orderID = orderID
			c.name = customerName
			c.phone = phoneNumber
		},
		OnFailure: func(orderID, message string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.failure++
			c.failMsg = message
		},
		OnTimeout: func(orderID string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.timeout++
		},
	}
}

func (c *callbackCounter) counts() (success, failure, timeout int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.success, c.failure, c.timeout
}

func testCart() []models.CartItem {
	return []models.CartItem{
		{ID: "1", Name: "Ugali with Beef Stew", Price: 3500, Quantity: 1},
		{ID: "4", Name: "Fresh Juice", Price: 1500, Quantity: 1},
	}
}

func newTestService(orders *fakeOrderService, gateway *fakeGateway, cb *callbackCounter, maxAttempts int) PaymentService {
	return NewPaymentService(orders, gateway, nil, PaymentConfig{
		PollInterval: time.Millisecond,
		MaxAttempts:  maxAttempts,
		CallbackURL:  "http://localhost:8080/api/payment/callback",
		DefaultEmail: "orders@cafeteria.local",
	}, cb.callbacks())
}

func waitForState(t *testing.T, session *PaymentSession, want SessionState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if session.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("session state = %s, want %s", session.State(), want)
}

func TestNormalizePhoneNumberLocalIsIdentity(t *testing.T) {
	for _, phone := range []string{"0712345678", "0655000111", "0788999000"} {
		if got := NormalizePhoneNumber(phone); got != phone {
			t.Errorf("NormalizePhoneNumber(%q) = %q, want identity", phone, got)
		}
	}
}

func TestNormalizePhoneNumberInternational(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+255712345678", "0712345678"},
		{"+255 712 345 678", "0712345678"},
		{"+255-655-000-111", "0655000111"},
	}
	for _, tt := range tests {
		if got := NormalizePhoneNumber(tt.in); got != tt.want {
			t.Errorf("NormalizePhoneNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"0712345678", "+255712345678", "0712 345 678"}
	for _, phone := range valid {
		if !ValidatePhoneNumber(phone) {
			t.Errorf("ValidatePhoneNumber(%q) = false, want true", phone)
		}
	}

	invalid := []string{"12345", "071234567", "07123456789", "+254712345678", "", "+25571234567"}
	for _, phone := range invalid {
		if ValidatePhoneNumber(phone) {
			t.Errorf("ValidatePhoneNumber(%q) = true, want false", phone)
		}
	}
}

func TestSubmitInvalidPhoneMakesNoCalls(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 20)

	_, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "12345",
		Source:       models.SourceStudentPortal,
	})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Submit error = %v, want ValidationError", err)
	}
	if validationErr.Field != "phoneNumber" {
		t.Errorf("ValidationError.Field = %q, want phoneNumber", validationErr.Field)
	}
	if orders.createdCount() != 0 {
		t.Errorf("orders created = %d, want 0", orders.createdCount())
	}
	if pay, status := gateway.calls(); pay != 0 || status != 0 {
		t.Errorf("gateway calls = (%d, %d), want (0, 0)", pay, status)
	}
}

func TestSubmitEmptyNameMakesNoCalls(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 20)

	_, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "   ",
		PhoneNumber:  "0712345678",
		Source:       models.SourceKiosk,
	})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Submit error = %v, want ValidationError", err)
	}
	if orders.createdCount() != 0 || gatewayTouched(gateway) {
		t.Error("collaborators were called despite validation failure")
	}
}

func gatewayTouched(g *fakeGateway) bool {
	pay, status := g.calls()
	return pay != 0 || status != 0
}

func TestSubmitHappyPath(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{
		statusFn: func(call int) (*zenopay.StatusResponse, error) {
			return &zenopay.StatusResponse{
				Success: true,
				Message: zenopay.Envelope{PaymentStatus: "COMPLETED", Message: "Wallet payment successful"},
			}, nil
		},
	}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 20)

	session, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "0712345678",
		Source:       models.SourceStudentPortal,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if session.Amount != 5000 {
		t.Errorf("session amount = %d, want 5000", session.Amount)
	}

	// The pending order must exist before the charge
	if orders.createdCount() != 1 {
		t.Fatalf("orders created = %d, want 1", orders.createdCount())
	}
	created := orders.created[0]
	if created.Status != models.OrderPending || created.PaymentStatus != models.PaymentPending {
		t.Errorf("initial order state = (%s, %s), want (pending, PENDING)", created.Status, created.PaymentStatus)
	}

	waitForState(t, session, StateSuccess)

	orders.mu.Lock()
	if len(orders.successOrderIDs) != 1 || orders.successOrderIDs[0] != created.ID {
		t.Errorf("RecordPaymentSuccess order ids = %v, want [%s]", orders.successOrderIDs, created.ID)
	}
	if orders.successName != "John" || orders.successPhone != "0712345678" {
		t.Errorf("reconciled customer = (%q, %q), want (John, 0712345678)", orders.successName, orders.successPhone)
	}
	if orders.gatewayIDs[created.ID] != "ZP-1" {
		t.Errorf("gateway id on order = %q, want ZP-1", orders.gatewayIDs[created.ID])
	}
	orders.mu.Unlock()

	success, failure, timeout := cb.counts()
	if success != 1 || failure != 0 || timeout != 0 {
		t.Errorf("callback counts = (%d, %d, %d), want (1, 0, 0)", success, failure, timeout)
	}
	if cb.orderID != created.ID || cb.name != "John" || cb.phone != "0712345678" {
		t.Errorf("success callback got (%q, %q, %q)", cb.orderID, cb.name, cb.phone)
	}

	gateway.mu.Lock()
	if gateway.lastPayReq.AmountToCharge != 5000 {
		t.Errorf("charged amount = %d, want 5000", gateway.lastPayReq.AmountToCharge)
	}
	if gateway.lastPayReq.CustomerEmail != "orders@cafeteria.local" {
		t.Errorf("default email not applied: %q", gateway.lastPayReq.CustomerEmail)
	}
	gateway.mu.Unlock()
}

func TestGatewayFailedOnFirstPoll(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{
		statusFn: func(call int) (*zenopay.StatusResponse, error) {
			return &zenopay.StatusResponse{
				Success: true,
				Message: zenopay.Envelope{PaymentStatus: "FAILED", Message: "Insufficient balance"},
			}, nil
		},
	}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 20)

	session, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "0712345678",
		Source:       models.SourceKiosk,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	waitForState(t, session, StateFailed)

	orders.mu.Lock()
	if len(orders.successOrderIDs) != 0 {
		t.Error("order was marked paid on a failed payment")
	}
	if len(orders.failureOrderIDs) != 1 {
		t.Errorf("RecordPaymentFailure calls = %d, want 1", len(orders.failureOrderIDs))
	}
	orders.mu.Unlock()

	success, failure, _ := cb.counts()
	if success != 0 {
		t.Error("success callback fired on failed payment")
	}
	if failure != 1 {
		t.Errorf("failure callback count = %d, want 1", failure)
	}
	if cb.failMsg != "Insufficient balance" {
		t.Errorf("failure message = %q, want gateway message verbatim", cb.failMsg)
	}
}

func TestPollingTimeoutAfterCeiling(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{} // always PENDING
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 20)

	session, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "0712345678",
		Source:       models.SourceStudentPortal,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	waitForState(t, session, StateTimeout)

	// No further polls may be scheduled after the ceiling
	_, statusAtTimeout := gateway.calls()
	if statusAtTimeout != 20 {
		t.Errorf("status calls at timeout = %d, want exactly 20", statusAtTimeout)
	}
	time.Sleep(20 * time.Millisecond)
	if _, status := gateway.calls(); status != statusAtTimeout {
		t.Errorf("polling continued after timeout: %d > %d", status, statusAtTimeout)
	}

	orders.mu.Lock()
	if len(orders.successOrderIDs) != 0 || len(orders.failureOrderIDs) != 0 {
		t.Error("timeout must leave payment status PENDING")
	}
	orders.mu.Unlock()

	success, failure, timeout := cb.counts()
	if success != 0 || failure != 0 || timeout != 1 {
		t.Errorf("callback counts = (%d, %d, %d), want (0, 0, 1)", success, failure, timeout)
	}
}

func TestPollingTransportErrorsAreRetried(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{
		statusFn: func(call int) (*zenopay.StatusResponse, error) {
			if call <= 2 {
				return nil, errors.New("connection reset")
			}
			return &zenopay.StatusResponse{
				Success: true,
				Message: zenopay.Envelope{PaymentStatus: "COMPLETED"},
			}, nil
		},
	}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 20)

	session, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "0712345678",
		Source:       models.SourceStudentPortal,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	waitForState(t, session, StateSuccess)

	if _, status := gateway.calls(); status != 3 {
		t.Errorf("status calls = %d, want 3 (two failures swallowed)", status)
	}
}

func TestChargeInitiationFailure(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{
		payResp: &zenopay.PaymentResponse{
			Success: false,
			Message: zenopay.Envelope{Message: "Invalid account"},
		},
	}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 20)

	_, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "0712345678",
		Source:       models.SourceKiosk,
	})

	var chargeErr *ChargeInitiationError
	if !errors.As(err, &chargeErr) {
		t.Fatalf("Submit error = %v, want ChargeInitiationError", err)
	}
	if chargeErr.Message != "Invalid account" {
		t.Errorf("gateway message = %q, want verbatim 'Invalid account'", chargeErr.Message)
	}
	if !errors.Is(err, ErrChargeInitiation) {
		t.Error("ChargeInitiationError must unwrap to ErrChargeInitiation")
	}

	// The pending order survives the failed initiation
	if orders.createdCount() != 1 {
		t.Errorf("orders created = %d, want 1", orders.createdCount())
	}
	if _, status := gateway.calls(); status != 0 {
		t.Errorf("status calls = %d, want 0", status)
	}
}

func TestOrderCreationFailureAbortsSubmission(t *testing.T) {
	orders := newFakeOrderService()
	orders.createErr = errors.New("connection refused")
	gateway := &fakeGateway{}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 20)

	_, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "0712345678",
		Source:       models.SourceStudentPortal,
	})

	if !errors.Is(err, ErrOrderCreation) {
		t.Fatalf("Submit error = %v, want ErrOrderCreation", err)
	}
	if pay, _ := gateway.calls(); pay != 0 {
		t.Error("charge initiated despite order creation failure")
	}
}

func TestCheckStatusIdempotentAfterTerminal(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{
		statusFn: func(call int) (*zenopay.StatusResponse, error) {
			return &zenopay.StatusResponse{
				Success: true,
				Message: zenopay.Envelope{PaymentStatus: "COMPLETED"},
			}, nil
		},
	}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 20)

	session, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "0712345678",
		Source:       models.SourceStudentPortal,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	waitForState(t, session, StateSuccess)

	_, callsAfterTerminal := gateway.calls()
	for i := 0; i < 3; i++ {
		state, _, err := svc.CheckStatus(session.ID)
		if err != nil {
			t.Fatalf("CheckStatus returned error: %v", err)
		}
		if state != StateSuccess {
			t.Errorf("CheckStatus state = %s, want SUCCESS", state)
		}
	}

	if _, status := gateway.calls(); status != callsAfterTerminal {
		t.Error("CheckStatus queried the gateway after a terminal state")
	}
	if success, _, _ := cb.counts(); success != 1 {
		t.Errorf("success callback count = %d, want exactly 1", success)
	}
}

func TestManualCheckResolvesAfterTimeout(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{} // auto-polling only ever sees PENDING
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 3)

	session, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "0712345678",
		Source:       models.SourceStudentPortal,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	waitForState(t, session, StateTimeout)

	// The customer completed the payment late; a manual check finds it
	gateway.mu.Lock()
	gateway.statusFn = func(call int) (*zenopay.StatusResponse, error) {
		return &zenopay.StatusResponse{
			Success: true,
			Message: zenopay.Envelope{PaymentStatus: "COMPLETED"},
		}, nil
	}
	gateway.mu.Unlock()

	state, _, err := svc.CheckStatus(session.ID)
	if err != nil {
		t.Fatalf("CheckStatus returned error: %v", err)
	}
	if state != StateSuccess {
		t.Errorf("CheckStatus state = %s, want SUCCESS", state)
	}

	orders.mu.Lock()
	reconciled := len(orders.successOrderIDs)
	orders.mu.Unlock()
	if reconciled != 1 {
		t.Errorf("RecordPaymentSuccess calls = %d, want 1", reconciled)
	}
	if success, _, _ := cb.counts(); success != 1 {
		t.Errorf("success callback count = %d, want 1", success)
	}
}

func TestCancelStopsPolling(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 1000)

	session, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "0712345678",
		Source:       models.SourceKiosk,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if err := svc.Cancel(session.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	_, before := gateway.calls()
	time.Sleep(20 * time.Millisecond)
	if _, after := gateway.calls(); after != before {
		t.Errorf("polling continued after cancel: %d > %d", after, before)
	}

	// Cancellation never rewrites persisted order state
	orders.mu.Lock()
	defer orders.mu.Unlock()
	if len(orders.successOrderIDs) != 0 || len(orders.failureOrderIDs) != 0 {
		t.Error("cancel must not alter order payment fields")
	}
}

func TestGatewayCallbackResolvesSession(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{
		// Gateway keeps answering PENDING; only the webhook resolves it
		statusFn: func(call int) (*zenopay.StatusResponse, error) {
			return &zenopay.StatusResponse{Success: true, Message: zenopay.Envelope{PaymentStatus: "PENDING"}}, nil
		},
	}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 1000)

	session, err := svc.Submit(SubmitRequest{
		Items:        testCart(),
		CustomerName: "John",
		PhoneNumber:  "0712345678",
		Source:       models.SourceStudentPortal,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	svc.HandleGatewayCallback("ZP-1", "COMPLETED", "ref-123")

	waitForState(t, session, StateSuccess)
	if success, _, _ := cb.counts(); success != 1 {
		t.Errorf("success callbacks = %d, want 1", success)
	}

	orders.mu.Lock()
	defer orders.mu.Unlock()
	if len(orders.successOrderIDs) != 1 {
		t.Fatalf("RecordPaymentSuccess calls = %d, want 1", len(orders.successOrderIDs))
	}
}

func TestGatewayCallbackUnknownOrderIgnored(t *testing.T) {
	orders := newFakeOrderService()
	gateway := &fakeGateway{}
	cb := &callbackCounter{}
	svc := newTestService(orders, gateway, cb, 1000)

	svc.HandleGatewayCallback("ZP-missing", "COMPLETED", "")

	if success, failure, timeout := cb.counts(); success != 0 || failure != 0 || timeout != 0 {
		t.Error("callback for unknown order must not fire session callbacks")
	}
}
