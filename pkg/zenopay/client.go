package zenopay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Status is the normalized gateway status. The raw envelope drifts
// between `payment_status` and `status` keys; nothing outside this
// package should ever see the raw fields.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusUnknown   Status = "UNKNOWN"
)

type Client struct {
	BaseURL    string
	AccountID  string
	APIKey     string
	SecretKey  string
	HTTPClient *http.Client
}

type PaymentRequest struct {
	AmountToCharge      int    `json:"amount"`
	CustomerName        string `json:"buyer_name"`
	CustomerEmail       string `json:"buyer_email"`
	CustomerPhoneNumber string `json:"buyer_phone"`
	CallbackURL         string `json:"webhook_url"`
}

type createOrderRequest struct {
	PaymentRequest
	AccountID   string `json:"account_id"`
	APIKey      string `json:"api_key"`
	SecretKey   string `json:"secret_key"`
	CreateOrder int    `json:"create_order"`
}

type statusRequest struct {
	OrderID     string `json:"order_id"`
	AccountID   string `json:"account_id"`
	APIKey      string `json:"api_key"`
	SecretKey   string `json:"secret_key"`
	CheckStatus int    `json:"check_status"`
}

// Envelope is the gateway's message payload. Failure responses carry a
// bare string where success responses carry an object, so it
// unmarshals from either shape.
type Envelope struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	OrderStatus   string `json:"status"`
	Message       string `json:"message"`
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*e = Envelope{Message: s}
		return nil
	}

	type alias Envelope
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	*e = Envelope(a)
	return nil
}

// Status normalizes the envelope's status fields. `payment_status`
// wins when both are present.
func (e Envelope) Status() Status {
	raw := e.PaymentStatus
	if raw == "" {
		raw = e.OrderStatus
	}

	switch strings.ToUpper(raw) {
	case "PENDING", "PROCESSING":
		return StatusPending
	case "COMPLETED", "SUCCESS":
		return StatusCompleted
	case "FAILED", "CANCELLED":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

type PaymentResponse struct {
	Success bool     `json:"success"`
	Message Envelope `json:"message"`
}

type StatusResponse struct {
	Success bool     `json:"success"`
	Message Envelope `json:"message"`
}

func NewClient(baseURL, accountID, apiKey, secretKey string) *Client {
	return &Client{
		BaseURL:   baseURL,
		AccountID: accountID,
		APIKey:    apiKey,
		SecretKey: secretKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Pay initiates a mobile-money charge. The callback URL is a
// placeholder required by the gateway; status resolution happens via
// CheckPaymentStatus polling, not webhooks.
func (c *Client) Pay(payment PaymentRequest) (*PaymentResponse, error) {
	requestData := createOrderRequest{
		PaymentRequest: payment,
		AccountID:      c.AccountID,
		APIKey:         c.APIKey,
		SecretKey:      c.SecretKey,
		CreateOrder:    1,
	}

	var response PaymentResponse
	if err := c.post(c.BaseURL, requestData, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// CheckPaymentStatus queries the gateway for one charge's status.
func (c *Client) CheckPaymentStatus(orderID string) (*StatusResponse, error) {
	requestData := statusRequest{
		OrderID:     orderID,
		AccountID:   c.AccountID,
		APIKey:      c.APIKey,
		SecretKey:   c.SecretKey,
		CheckStatus: 1,
	}

	var response StatusResponse
	if err := c.post(c.BaseURL+"/order-status", requestData, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) post(url string, requestData interface{}, response interface{}) error {
	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
