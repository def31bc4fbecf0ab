package services

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"cafeteria/internal/models"
	"cafeteria/pkg/zenopay"

	"github.com/google/uuid"
)

// Gateway is the payment gateway surface the controller needs.
// Satisfied by *zenopay.Client.
type Gateway interface {
	Pay(payment zenopay.PaymentRequest) (*zenopay.PaymentResponse, error)
	CheckPaymentStatus(orderID string) (*zenopay.StatusResponse, error)
}

type SessionState string

const (
	StateIdle             SessionState = "IDLE"
	StateValidating       SessionState = "VALIDATING"
	StateOrderCreated     SessionState = "ORDER_CREATED"
	StateChargeInitiating SessionState = "CHARGE_INITIATING"
	StatePolling          SessionState = "POLLING"
	StateSuccess          SessionState = "SUCCESS"
	StateFailed           SessionState = "FAILED"
	StateTimeout          SessionState = "TIMEOUT"
	StateError            SessionState = "ERROR"
)

// Callbacks fire at most once per session, on the terminal outcome.
type Callbacks struct {
	OnSuccess func(orderID, customerName, phoneNumber string)
	OnFailure func(orderID, message string)
	OnTimeout func(orderID string)
}

type PaymentConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	CallbackURL  string
	DefaultEmail string
}

// ChargeInitiationError reports a gateway rejection at charge time.
// The order referenced by OrderID is left in its pending state.
type ChargeInitiationError struct {
	OrderID string
	Message string
}

func (e *ChargeInitiationError) Error() string {
	return fmt.Sprintf("charge initiation failed for order %s: %s", e.OrderID, e.Message)
}

func (e *ChargeInitiationError) Unwrap() error { return ErrChargeInitiation }

// PaymentSession tracks one checkout attempt from validation through
// terminal reconciliation.
type PaymentSession struct {
	ID             string
	OrderID        string
	OrderNumber    string
	ZenoPayOrderID string
	CustomerName   string
	PhoneNumber    string
	DeviceID       string
	Amount         int

	mu       sync.Mutex
	state    SessionState
	message  string
	attempts int
	// done marks a true terminal outcome (SUCCESS or FAILED). TIMEOUT
	// stops auto-polling but still admits a manual status check.
	done     bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

func (sess *PaymentSession) State() SessionState {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

func (sess *PaymentSession) Message() string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.message
}

func (sess *PaymentSession) Attempts() int {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.attempts
}

func (sess *PaymentSession) setState(state SessionState, message string) {
	sess.mu.Lock()
	sess.state = state
	sess.message = message
	sess.mu.Unlock()
}

// markDone flips the session into SUCCESS or FAILED exactly once.
// Returns false if a terminal outcome was already recorded, so
// persistence and callbacks never run twice.
func (sess *PaymentSession) markDone(state SessionState, message string) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.done {
		return false
	}
	sess.done = true
	sess.state = state
	sess.message = message
	return true
}

func (sess *PaymentSession) stop() {
	sess.stopOnce.Do(func() { close(sess.stopCh) })
}

type SubmitRequest struct {
	Items         []models.CartItem
	CustomerName  string
	PhoneNumber   string
	CustomerEmail string
	Source        string
	DeviceID      string
}

type PaymentService interface {
	Submit(req SubmitRequest) (*PaymentSession, error)
	GetSession(sessionID string) (*PaymentSession, error)
	CheckStatus(sessionID string) (SessionState, string, error)
	HandleGatewayCallback(zenopayOrderID, paymentStatus, message string)
	Cancel(sessionID string) error
}

type paymentService struct {
	orders    OrderService
	gateway   Gateway
	carts     CartStore // may be nil; cleared on payment success
	cfg       PaymentConfig
	callbacks Callbacks

	mu       sync.RWMutex
	sessions map[string]*PaymentSession
}

func NewPaymentService(orders OrderService, gateway Gateway, carts CartStore, cfg PaymentConfig, callbacks Callbacks) PaymentService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 20
	}
	return &paymentService{
		orders:    orders,
		gateway:   gateway,
		carts:     carts,
		cfg:       cfg,
		callbacks: callbacks,
		sessions:  make(map[string]*PaymentSession),
	}
}

var phonePattern = regexp.MustCompile(`^(0\d{9}|\+255\d{9})$`)

func cleanPhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhoneNumber accepts local 0XXXXXXXXX or international
// +255XXXXXXXXX after stripping spaces and punctuation.
func ValidatePhoneNumber(phone string) bool {
	return phonePattern.MatchString(cleanPhoneNumber(phone))
}

// NormalizePhoneNumber rewrites +255XXXXXXXXX to 0XXXXXXXXX so the
// stored order and the gateway receive the same canonical form. Local
// numbers pass through unchanged.
func NormalizePhoneNumber(phone string) string {
	cleaned := cleanPhoneNumber(phone)
	if strings.HasPrefix(cleaned, "+255") {
		return "0" + cleaned[4:]
	}
	return cleaned
}

// Submit runs the checkout sequence: validate, create the pending
// order, initiate the charge, then poll in the background. The order
// write must complete before any charge so a charge can always be
// correlated back to a persisted order.
func (s *paymentService) Submit(req SubmitRequest) (*PaymentSession, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, &ValidationError{Field: "customerName", Reason: "must not be empty"}
	}
	if !ValidatePhoneNumber(req.PhoneNumber) {
		return nil, &ValidationError{Field: "phoneNumber", Reason: "use 0XXXXXXXXX or +255XXXXXXXXX format"}
	}
	phone := NormalizePhoneNumber(req.PhoneNumber)

	order, err := s.orders.CreateOrder(req.Source, name, phone, req.Items)
	if err != nil {
		if err == ErrEmptyCart {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderCreation, err)
	}

	session := &PaymentSession{
		ID:           uuid.NewString(),
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		CustomerName: name,
		PhoneNumber:  phone,
		DeviceID:     req.DeviceID,
		// Total computed at charge time, not at cart-display time
		Amount: models.CartTotal(req.Items),
		state:  StateChargeInitiating,
		stopCh: make(chan struct{}),
	}

	email := req.CustomerEmail
	if email == "" {
		email = s.cfg.DefaultEmail
	}

	resp, err := s.gateway.Pay(zenopay.PaymentRequest{
		AmountToCharge:      session.Amount,
		CustomerName:        name,
		CustomerEmail:       email,
		CustomerPhoneNumber: phone,
		CallbackURL:         s.cfg.CallbackURL,
	})
	if err != nil {
		session.setState(StateFailed, err.Error())
		return nil, &ChargeInitiationError{OrderID: order.ID, Message: err.Error()}
	}
	if !resp.Success {
		session.setState(StateFailed, resp.Message.Message)
		return nil, &ChargeInitiationError{OrderID: order.ID, Message: resp.Message.Message}
	}

	session.ZenoPayOrderID = resp.Message.OrderID
	if err := s.orders.RecordGatewayID(order.ID, session.ZenoPayOrderID); err != nil {
		log.Printf("Warning: failed to record gateway id on order %s: %v", order.ID, err)
	}

	session.setState(StatePolling, resp.Message.Message)
	s.register(session)
	go s.pollLoop(session)

	return session, nil
}

func (s *paymentService) register(session *PaymentSession) {
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
}

func (s *paymentService) GetSession(sessionID string) (*PaymentSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// pollLoop issues one status query per interval, with at most one
// outstanding query at a time, until a terminal state or the ceiling.
func (s *paymentService) pollLoop(session *PaymentSession) {
	for {
		if s.pollOnce(session) {
			return
		}
		select {
		case <-session.stopCh:
			return
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

// pollOnce performs one status roundtrip and returns true when polling
// should stop.
func (s *paymentService) pollOnce(session *PaymentSession) bool {
	resp, err := s.gateway.CheckPaymentStatus(session.ZenoPayOrderID)
	if err != nil {
		// Single poll failures are non-fatal; retry on the next tick
		return s.countAttempt(session)
	}

	status := resp.Message.Status()
	if !resp.Success {
		status = zenopay.StatusUnknown
	}

	if terminal := s.interpret(session, status, resp.Message.Message); terminal {
		return true
	}

	return s.countAttempt(session)
}

// interpret applies one gateway status to the session. Returns true on
// a terminal outcome.
func (s *paymentService) interpret(session *PaymentSession, status zenopay.Status, message string) bool {
	switch status {
	case zenopay.StatusCompleted:
		if !session.markDone(StateSuccess, "Payment completed successfully") {
			return true
		}
		session.stop()
		now := time.Now()
		if err := s.orders.RecordPaymentSuccess(session.OrderID, session.CustomerName, session.PhoneNumber, now); err != nil {
			log.Printf("Warning: failed to reconcile paid order %s: %v", session.OrderID, err)
		}
		if s.carts != nil && session.DeviceID != "" {
			if err := s.carts.DeleteCart(session.DeviceID); err != nil {
				log.Printf("Warning: failed to clear cart %s: %v", session.DeviceID, err)
			}
		}
		if s.callbacks.OnSuccess != nil {
			s.callbacks.OnSuccess(session.OrderID, session.CustomerName, session.PhoneNumber)
		}
		return true

	case zenopay.StatusFailed:
		if !session.markDone(StateFailed, message) {
			return true
		}
		session.stop()
		if err := s.orders.RecordPaymentFailure(session.OrderID); err != nil {
			log.Printf("Warning: failed to record payment failure on order %s: %v", session.OrderID, err)
		}
		if s.callbacks.OnFailure != nil {
			s.callbacks.OnFailure(session.OrderID, message)
		}
		return true

	default:
		// PENDING or anything unrecognized: keep polling
		return false
	}
}

// countAttempt increments the attempt counter and trips the timeout
// ceiling. The order stays PENDING for manual reconciliation.
func (s *paymentService) countAttempt(session *PaymentSession) bool {
	session.mu.Lock()
	session.attempts++
	timedOut := session.attempts >= s.cfg.MaxAttempts && !session.done
	if timedOut {
		session.state = StateTimeout
		session.message = "Payment verification timed out. If you completed the payment, use the manual status check."
	}
	session.mu.Unlock()

	if timedOut {
		session.stop()
		if err := s.orders.RecordPaymentTimeout(session.OrderID); err != nil {
			log.Printf("Warning: failed to record payment timeout on order %s: %v", session.OrderID, err)
		}
		if s.callbacks.OnTimeout != nil {
			s.callbacks.OnTimeout(session.OrderID)
		}
	}
	return timedOut
}

// CheckStatus performs a single synchronous status check, usable while
// auto-polling is running and after a timeout. After SUCCESS or FAILED
// it returns the recorded outcome without calling the gateway.
func (s *paymentService) CheckStatus(sessionID string) (SessionState, string, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return StateError, "", err
	}

	session.mu.Lock()
	if session.done {
		state, message := session.state, session.message
		session.mu.Unlock()
		return state, message, nil
	}
	session.mu.Unlock()

	resp, err := s.gateway.CheckPaymentStatus(session.ZenoPayOrderID)
	if err != nil {
		return session.State(), "Failed to check payment status", err
	}

	status := resp.Message.Status()
	if !resp.Success {
		status = zenopay.StatusUnknown
	}
	s.interpret(session, status, resp.Message.Message)

	return session.State(), session.Message(), nil
}

// HandleGatewayCallback applies a webhook notification pushed by the
// gateway. Polling remains the source of truth; the webhook just
// short-circuits the wait. Notifications for unknown order ids are
// logged and dropped.
func (s *paymentService) HandleGatewayCallback(zenopayOrderID, paymentStatus, message string) {
	s.mu.RLock()
	var session *PaymentSession
	for _, sess := range s.sessions {
		if sess.ZenoPayOrderID == zenopayOrderID {
			session = sess
			break
		}
	}
	s.mu.RUnlock()

	if session == nil {
		log.Printf("Warning: gateway callback for unknown order %s ignored", zenopayOrderID)
		return
	}

	status := zenopay.Envelope{PaymentStatus: paymentStatus}.Status()
	s.interpret(session, status, message)
}

// Cancel stops polling. Already-persisted order state is untouched; a
// PENDING order survives as a record of the abandoned payment.
func (s *paymentService) Cancel(sessionID string) error {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return err
	}
	session.stop()
	return nil
}
