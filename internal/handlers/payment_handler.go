package handlers

import (
	"errors"
	"net/http"

	"cafeteria/internal/services"
	"cafeteria/pkg/zenopay"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService services.PaymentService
	cartService    services.CartService
	gateway        services.Gateway
}

func NewPaymentHandler(paymentService services.PaymentService, cartService services.CartService, gateway services.Gateway) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		cartService:    cartService,
		gateway:        gateway,
	}
}

// CreatePayment forwards a raw charge request to the gateway and
// mirrors its envelope unchanged. Portals that manage their own order
// records use this; Checkout is the full flow.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req struct {
		Amount        int    `json:"amount"`
		CustomerName  string `json:"customerName"`
		PhoneNumber   string `json:"phoneNumber"`
		CustomerEmail string `json:"customerEmail"`
		CallbackURL   string `json:"callbackUrl"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}
	if req.Amount <= 0 || req.CustomerName == "" || req.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required fields"})
		return
	}

	resp, err := h.gateway.Pay(zenopay.PaymentRequest{
		AmountToCharge:      req.Amount,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerPhoneNumber: services.NormalizePhoneNumber(req.PhoneNumber),
		CallbackURL:         req.CallbackURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "An error occurred while creating the payment"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PaymentStatus forwards a status query and mirrors the gateway
// envelope unchanged.
func (h *PaymentHandler) PaymentStatus(c *gin.Context) {
	orderID := c.Query("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": gin.H{"status": "error", "message": "Missing orderId parameter"},
		})
		return
	}

	resp, err := h.gateway.CheckPaymentStatus(orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": gin.H{"status": "error", "message": "Failed to check payment status"},
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Checkout runs the full payment session: pending order, gateway
// charge, background polling.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req struct {
		DeviceID      string `json:"device_id"`
		CustomerName  string `json:"customer_name"`
		PhoneNumber   string `json:"phone_number"`
		CustomerEmail string `json:"customer_email"`
		Source        string `json:"source"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	items, err := h.cartService.GetCart(req.DeviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}

	session, err := h.paymentService.Submit(services.SubmitRequest{
		Items:         items,
		CustomerName:  req.CustomerName,
		PhoneNumber:   req.PhoneNumber,
		CustomerEmail: req.CustomerEmail,
		Source:        req.Source,
		DeviceID:      req.DeviceID,
	})
	if err != nil {
		var validationErr *services.ValidationError
		var chargeErr *services.ChargeInitiationError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
		case errors.Is(err, services.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		case errors.As(err, &chargeErr):
			// Order persisted but the charge was rejected; the caller
			// may resubmit against a fresh session
			c.JSON(http.StatusBadGateway, gin.H{"error": chargeErr.Message, "order_id": chargeErr.OrderID})
		case errors.Is(err, services.ErrOrderCreation):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id":   session.ID,
		"order_id":     session.OrderID,
		"order_number": session.OrderNumber,
		"amount":       session.Amount,
		"state":        session.State(),
		"message":      session.Message(),
	})
}

func (h *PaymentHandler) GetSession(c *gin.Context) {
	session, err := h.paymentService.GetSession(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":   session.ID,
		"order_id":     session.OrderID,
		"order_number": session.OrderNumber,
		"state":        session.State(),
		"message":      session.Message(),
		"attempts":     session.Attempts(),
	})
}

// CheckSession is the manual status check, usable while polling and
// after a timeout.
func (h *PaymentHandler) CheckSession(c *gin.Context) {
	state, message, err := h.paymentService.CheckStatus(c.Param("session_id"))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		// Transport failure on a manual check is reported but the
		// session stays usable
		c.JSON(http.StatusOK, gin.H{"state": state, "message": message, "checked": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state, "message": message, "checked": true})
}

// PaymentCallback receives the gateway's webhook. Always acknowledges
// with 200 so the gateway does not retry; polling covers any dropped
// notification.
func (h *PaymentHandler) PaymentCallback(c *gin.Context) {
	var req struct {
		OrderID       string `json:"order_id"`
		PaymentStatus string `json:"payment_status"`
		Reference     string `json:"reference"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		c.JSON(http.StatusOK, gin.H{"received": false})
		return
	}

	h.paymentService.HandleGatewayCallback(req.OrderID, req.PaymentStatus, req.Reference)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// CancelSession stops polling without touching persisted order state.
func (h *PaymentHandler) CancelSession(c *gin.Context) {
	if err := h.paymentService.Cancel(c.Param("session_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
