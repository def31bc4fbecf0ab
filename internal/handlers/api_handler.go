package handlers

import (
	"net/http"

	"cafeteria/internal/models"
	"cafeteria/internal/services"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	menuService    services.MenuService
	orderService   services.OrderService
	cashierService services.CashierService
	cartService    services.CartService
	qrService      services.QRService
}

func NewAPIHandler(
	menuService services.MenuService,
	orderService services.OrderService,
	cashierService services.CashierService,
	cartService services.CartService,
	qrService services.QRService,
) *APIHandler {
	return &APIHandler{
		menuService:    menuService,
		orderService:   orderService,
		cashierService: cashierService,
		cartService:    cartService,
		qrService:      qrService,
	}
}

// Menu endpoints

func (h *APIHandler) GetMenu(c *gin.Context) {
	var (
		items []models.MenuItem
		err   error
	)
	// ready=true narrows to orderable items for the student/kiosk portals
	if c.Query("ready") == "true" {
		items, err = h.menuService.GetReadyMenu()
	} else {
		items, err = h.menuService.GetMenu()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load menu"})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *APIHandler) CreateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if item.Name == "" || item.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and a positive price are required"})
		return
	}

	if err := h.menuService.CreateMenuItem(&item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create menu item"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

// UpdateMenuItem patches an item by id. Accepting {id, ...fields} in
// the body keeps compatibility with the earlier PUT /api/menu surface.
func (h *APIHandler) UpdateMenuItem(c *gin.Context) {
	var req struct {
		ID          string  `json:"id"`
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Price       *int    `json:"price"`
		Category    *string `json:"category"`
		Ready       *bool   `json:"ready"`
		Image       *string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	item, err := h.menuService.GetMenuItem(req.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Ready != nil {
		item.Ready = *req.Ready
	}
	if req.Image != nil {
		item.Image = *req.Image
	}

	if err := h.menuService.UpdateMenuItem(item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update menu item"})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *APIHandler) DeleteMenuItem(c *gin.Context) {
	if err := h.menuService.DeleteMenuItem(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete menu item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Category endpoints

func (h *APIHandler) GetCategories(c *gin.Context) {
	var (
		categories []models.Category
		err        error
	)
	if c.Query("active") == "true" {
		categories, err = h.menuService.GetActiveCategories()
	} else {
		categories, err = h.menuService.GetCategories()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load categories"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *APIHandler) CreateCategory(c *gin.Context) {
	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil || category.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required"})
		return
	}

	if err := h.menuService.CreateCategory(&category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *APIHandler) UpdateCategory(c *gin.Context) {
	var req struct {
		ID     string `json:"id"`
		Active *bool  `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	category, err := h.menuService.SetCategoryActive(req.ID, *req.Active)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, category)
}

// Order endpoints

func (h *APIHandler) GetOrders(c *gin.Context) {
	var (
		orders []models.Order
		err    error
	)
	// active=true hides picked-up orders for the cashier queue
	if c.Query("active") == "true" {
		orders, err = h.orderService.GetActiveOrders()
	} else {
		orders, err = h.orderService.GetAllOrders()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// CreateOrder appends an order without a payment session (compat
// surface; the cashier portal records walk-up orders this way).
func (h *APIHandler) CreateOrder(c *gin.Context) {
	var req struct {
		CustomerName string            `json:"customer_name"`
		PhoneNumber  string            `json:"phone_number"`
		Source       string            `json:"source"`
		Items        []models.CartItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Source == "" {
		req.Source = models.SourceCashier
	}

	order, err := h.orderService.CreateOrder(req.Source, req.CustomerName, req.PhoneNumber, req.Items)
	if err != nil {
		if err == services.ErrEmptyCart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Order must contain at least one item"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// UpdateOrder patches an order's fulfillment status by id, guarded by
// the transition table.
func (h *APIHandler) UpdateOrder(c *gin.Context) {
	var req struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Actor  string `json:"actor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Actor == "" {
		req.Actor = models.ActorCashier
	}

	if err := h.orderService.UpdateStatus(req.ID, req.Status, req.Actor); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderService.GetOrderByID(req.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *APIHandler) GetOrderQR(c *gin.Context) {
	order, err := h.orderService.GetOrderByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	payload, err := h.qrService.BuildPayload(order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build QR payload"})
		return
	}

	c.JSON(http.StatusOK, payload)
}

// ResolveQR looks up an order from a scanned QR payload or a bare
// order number typed at the cashier station.
func (h *APIHandler) ResolveQR(c *gin.Context) {
	var req struct {
		Scanned string `json:"scanned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Scanned == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scanned data is required"})
		return
	}

	order, err := h.qrService.Resolve(req.Scanned)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// Cashier endpoints

func (h *APIHandler) GetCashiers(c *gin.Context) {
	var (
		cashiers []models.Cashier
		err      error
	)
	if c.Query("active") == "true" {
		cashiers, err = h.cashierService.GetActiveCashiers()
	} else {
		cashiers, err = h.cashierService.GetAllCashiers()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cashiers"})
		return
	}

	c.JSON(http.StatusOK, cashiers)
}

func (h *APIHandler) CreateCashier(c *gin.Context) {
	var cashier models.Cashier
	if err := c.ShouldBindJSON(&cashier); err != nil || cashier.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cashier name is required"})
		return
	}

	if err := h.cashierService.CreateCashier(&cashier); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cashier"})
		return
	}

	c.JSON(http.StatusCreated, cashier)
}

func (h *APIHandler) UpdateCashier(c *gin.Context) {
	var req struct {
		ID     string `json:"id"`
		Active *bool  `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" || req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	cashier, err := h.cashierService.SetActive(req.ID, *req.Active)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cashier not found"})
		return
	}

	c.JSON(http.StatusOK, cashier)
}

// Cart endpoints

func (h *APIHandler) GetCart(c *gin.Context) {
	deviceID := c.Param("device_id")
	items, err := h.cartService.GetCart(deviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"total":      models.CartTotal(items),
		"item_count": models.CartItemCount(items),
	})
}

func (h *APIHandler) AddCartItem(c *gin.Context) {
	deviceID := c.Param("device_id")
	var req struct {
		MenuItemID string `json:"menu_item_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.MenuItemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "menu_item_id is required"})
		return
	}

	item, err := h.menuService.GetMenuItem(req.MenuItemID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	if !item.Ready {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item is not available for ordering"})
		return
	}

	if err := h.cartService.AddItem(deviceID, *item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	h.GetCart(c)
}

func (h *APIHandler) SetCartItemQuantity(c *gin.Context) {
	deviceID := c.Param("device_id")
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.cartService.SetQuantity(deviceID, c.Param("item_id"), req.Quantity); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	h.GetCart(c)
}

func (h *APIHandler) RemoveCartItem(c *gin.Context) {
	if err := h.cartService.RemoveItem(c.Param("device_id"), c.Param("item_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	h.GetCart(c)
}

func (h *APIHandler) ClearCart(c *gin.Context) {
	if err := h.cartService.Clear(c.Param("device_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
