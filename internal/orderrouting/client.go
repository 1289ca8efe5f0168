// Клиент диспетчерской платформы: включение/выключение приёма заказов водителем.
// Все вызовы идемпотентны на стороне платформы; сбои обрабатывает вызывающий.
package orderrouting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dlnn-tech/taxi-driver-app/internal/config"
)

// Client — HTTP-клиент платформы. Реализует permits.OrderRouting.
type Client struct {
	baseURL   string
	apiKey    string
	partnerID string
	http      *http.Client
}

func NewClient(cfg config.Routing) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		partnerID: cfg.PartnerID,
		http:      &http.Client{Timeout: timeout},
	}
}

// DriverStatus — состояние водителя на стороне платформы.
type DriverStatus struct {
	DriverRef     string `json:"driver_ref"`
	OrdersEnabled bool   `json:"orders_enabled"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    *struct {
		OrdersEnabled bool `json:"orders_enabled"`
	} `json:"data,omitempty"`
}

// EnableOrders включает приём заказов для водителя.
func (c *Client) EnableOrders(ctx context.Context, driverRef string) error {
	_, err := c.call(ctx, http.MethodPost, "/driver/enable", driverRef)
	return err
}

// DisableOrders выключает приём заказов для водителя.
func (c *Client) DisableOrders(ctx context.Context, driverRef string) error {
	_, err := c.call(ctx, http.MethodPost, "/driver/disable", driverRef)
	return err
}

// GetStatus возвращает текущий флаг заказов водителя на платформе.
func (c *Client) GetStatus(ctx context.Context, driverRef string) (DriverStatus, error) {
	out, err := c.call(ctx, http.MethodPost, "/driver/status", driverRef)
	if err != nil {
		return DriverStatus{}, err
	}
	st := DriverStatus{DriverRef: driverRef}
	if out.Data != nil {
		st.OrdersEnabled = out.Data.OrdersEnabled
	}
	return st, nil
}

func (c *Client) call(ctx context.Context, method, path, driverRef string) (*apiResponse, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("order routing: base url not configured")
	}
	body := map[string]string{
		"partner_id": c.partnerID,
		"driver_ref": driverRef,
	}
	raw, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	rb, _ := io.ReadAll(resp.Body)

	var out apiResponse
	_ = json.Unmarshal(rb, &out)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing api %s %d: %s", path, resp.StatusCode, string(rb))
	}
	if !out.Success {
		return nil, fmt.Errorf("routing api %s error: %s", path, out.Error)
	}
	return &out, nil
}
