package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/ffhan/lob"
)

const market = "BTC-USD"

const (
	traderA = "11111111-1111-1111-1111-111111111111"
	traderB = "22222222-2222-2222-2222-222222222222"
)

func setup(t *testing.T) *Server {
	t.Helper()
	engine := lob.NewEngine(nil, nil)
	if _, err := engine.CreateMarket(market); err != nil {
		t.Fatal(err)
	}
	return NewServer(engine, zap.NewNop())
}

func submit(t *testing.T, s *Server, trader, side, price, qty string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(SubmitOrderRequest{
		Market:   market,
		TraderID: trader,
		Side:     side,
		Price:    price,
		Quantity: qty,
	})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_SubmitRests(t *testing.T) {
	s := setup(t)

	rec := submit(t, s, traderA, "buy", "100", "5")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SubmitOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.OrderID == 0 {
		t.Error("expected a nonzero order ID")
	}
	if len(resp.Events) != 1 || resp.Events[0].Type != "order_placed" {
		t.Fatalf("expected one order_placed event, got %+v", resp.Events)
	}
	if resp.Events[0].Placed.Quantity != "5" {
		t.Errorf("expected resting quantity 5, got %s", resp.Events[0].Placed.Quantity)
	}
}

func TestServer_SubmitMatches(t *testing.T) {
	s := setup(t)

	if rec := submit(t, s, traderA, "sell", "100", "5"); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec := submit(t, s, traderB, "buy", "100", "5")
	if rec.Code != http.StatusOK {
		t.Fatalf("fully filled taker should return 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SubmitOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Type != "order_traded" {
		t.Fatalf("expected one order_traded event, got %+v", resp.Events)
	}
	trade := resp.Events[0].Traded
	if trade.Price != "100" || trade.Quantity != "5" {
		t.Errorf("expected 5 @ 100, got %s @ %s", trade.Quantity, trade.Price)
	}
	if trade.MakerTraderID != traderA || trade.TakerTraderID != traderB {
		t.Errorf("maker/taker attribution wrong: %+v", trade)
	}
}

func TestServer_SubmitRejectsBadInput(t *testing.T) {
	s := setup(t)

	cases := []struct {
		name string
		req  SubmitOrderRequest
	}{
		{"bad side", SubmitOrderRequest{Market: market, TraderID: traderA, Side: "hold", Price: "100", Quantity: "1"}},
		{"bad trader", SubmitOrderRequest{Market: market, TraderID: "not-a-uuid", Side: "buy", Price: "100", Quantity: "1"}},
		{"bad price", SubmitOrderRequest{Market: market, TraderID: traderA, Side: "buy", Price: "hundred", Quantity: "1"}},
		{"zero quantity", SubmitOrderRequest{Market: market, TraderID: traderA, Side: "buy", Price: "100", Quantity: "0"}},
		{"missing market", SubmitOrderRequest{TraderID: traderA, Side: "buy", Price: "100", Quantity: "1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(tc.req)
			if err != nil {
				t.Fatal(err)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServer_SubmitUnknownMarket(t *testing.T) {
	s := setup(t)

	body, _ := json.Marshal(SubmitOrderRequest{
		Market: "ETH-USD", TraderID: traderA, Side: "buy", Price: "100", Quantity: "1",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_Cancel(t *testing.T) {
	s := setup(t)

	rec := submit(t, s, traderA, "buy", "100", "5")
	var resp SubmitOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	url := fmt.Sprintf("/api/v1/orders/%s/%d", market, resp.OrderID)
	req := httptest.NewRequest(http.MethodDelete, url, nil)
	cancelRec := httptest.NewRecorder()
	s.Router().ServeHTTP(cancelRec, req)
	if cancelRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", cancelRec.Code, cancelRec.Body.String())
	}

	var ev EventJSON
	if err := json.Unmarshal(cancelRec.Body.Bytes(), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "order_cancelled" || ev.Cancelled == nil || ev.Cancelled.OrderID != resp.OrderID {
		t.Errorf("unexpected cancel event: %+v", ev)
	}

	// second cancel finds nothing
	cancelRec = httptest.NewRecorder()
	s.Router().ServeHTTP(cancelRec, httptest.NewRequest(http.MethodDelete, url, nil))
	if cancelRec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on repeat cancel, got %d", cancelRec.Code)
	}
}

func TestServer_CancelBadID(t *testing.T) {
	s := setup(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/"+market+"/abc", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_Depth(t *testing.T) {
	s := setup(t)

	submit(t, s, traderA, "buy", "99", "3")
	submit(t, s, traderA, "buy", "100", "2")
	submit(t, s, traderB, "sell", "101", "4")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/depth/"+market, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var depth DepthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &depth); err != nil {
		t.Fatal(err)
	}
	wantBids := []DepthLevelJSON{{Price: "100", Quantity: "2"}, {Price: "99", Quantity: "3"}}
	wantAsks := []DepthLevelJSON{{Price: "101", Quantity: "4"}}
	if len(depth.Bids) != len(wantBids) {
		t.Fatalf("expected %d bid levels, got %d", len(wantBids), len(depth.Bids))
	}
	for i, want := range wantBids {
		if depth.Bids[i] != want {
			t.Errorf("bid level %d: expected %+v, got %+v", i, want, depth.Bids[i])
		}
	}
	if len(depth.Asks) != 1 || depth.Asks[0] != wantAsks[0] {
		t.Errorf("expected asks %+v, got %+v", wantAsks, depth.Asks)
	}
}

func TestServer_Health(t *testing.T) {
	s := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Status  string   `json:"status"`
		Markets []string `json:"markets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "healthy" {
		t.Errorf("expected healthy, got %s", body.Status)
	}
	if len(body.Markets) != 1 || body.Markets[0] != market {
		t.Errorf("expected markets [%s], got %v", market, body.Markets)
	}
}
