package orderrouting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dlnn-tech/taxi-driver-app/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.Routing{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		PartnerID: "partner-42",
		Timeout:   2 * time.Second,
	})
}

func TestEnableOrdersSendsAuthAndPartner(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	if err := c.EnableOrders(context.Background(), "+998901234567"); err != nil {
		t.Fatalf("EnableOrders: %v", err)
	}
	if gotPath != "/driver/enable" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth = %s", gotAuth)
	}
	if gotBody["partner_id"] != "partner-42" || gotBody["driver_ref"] != "+998901234567" {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestDisableOrdersSurfacesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "driver not found"})
	})
	err := c.DisableOrders(context.Background(), "+998901234567")
	if err == nil {
		t.Fatal("expected error from success=false response")
	}
}

func TestCallSurfacesHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	if err := c.EnableOrders(context.Background(), "ref"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestGetStatusDecodesFlag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/driver/status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"orders_enabled": true},
		})
	})
	st, err := c.GetStatus(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !st.OrdersEnabled || st.DriverRef != "ref-1" {
		t.Fatalf("status = %+v", st)
	}
}

func TestUnconfiguredBaseURL(t *testing.T) {
	c := NewClient(config.Routing{})
	if err := c.EnableOrders(context.Background(), "ref"); err == nil {
		t.Fatal("expected error when base url is empty")
	}
}
