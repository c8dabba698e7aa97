package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ffhan/lob"
)

// Server exposes the matching engine over HTTP. It assigns order IDs from a
// process-local counter; the engine itself treats IDs as caller-supplied.
type Server struct {
	engine *lob.Engine
	router *mux.Router
	log    *zap.Logger

	startTime   time.Time
	nextOrderID atomic.Uint64
}

func NewServer(engine *lob.Engine, log *zap.Logger) *Server {
	s := &Server{
		engine:    engine,
		router:    mux.NewRouter(),
		log:       log,
		startTime: time.Now(),
	}
	s.registerRoutes()
	return s
}

// Router returns the HTTP handler to mount.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{market}/{order_id}", s.handleCancelOrder).Methods(http.MethodDelete)
	api.HandleFunc("/depth/{market}", s.handleDepth).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// SubmitOrderRequest is the JSON body of POST /api/v1/orders. Prices and
// quantities travel as decimal strings to keep them exact.
type SubmitOrderRequest struct {
	Market   string `json:"market"`
	TraderID string `json:"trader_id"`
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

type SubmitOrderResponse struct {
	OrderID uint64      `json:"order_id"`
	Events  []EventJSON `json:"events"`
}

type EventJSON struct {
	Type      string         `json:"type"`
	Placed    *PlacedJSON    `json:"order_placed,omitempty"`
	Traded    *TradeJSON     `json:"order_traded,omitempty"`
	Cancelled *CancelledJSON `json:"order_cancelled,omitempty"`
}

type PlacedJSON struct {
	OrderID   uint64    `json:"order_id"`
	TraderID  string    `json:"trader_id"`
	Market    string    `json:"market"`
	Side      string    `json:"side"`
	Type      string    `json:"order_type"`
	Price     string    `json:"price"`
	Quantity  string    `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

type TradeJSON struct {
	TradeID       uint64    `json:"trade_id"`
	Market        string    `json:"market"`
	MakerOrderID  uint64    `json:"maker_order_id"`
	TakerOrderID  uint64    `json:"taker_order_id"`
	MakerTraderID string    `json:"maker_trader_id"`
	TakerTraderID string    `json:"taker_trader_id"`
	Quantity      string    `json:"quantity"`
	Price         string    `json:"price"`
	Timestamp     time.Time `json:"timestamp"`
}

type CancelledJSON struct {
	OrderID   uint64    `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

type DepthLevelJSON struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

type DepthResponse struct {
	Market string           `json:"market"`
	Bids   []DepthLevelJSON `json:"bids"`
	Asks   []DepthLevelJSON `json:"asks"`
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if req.Market == "" {
		respondError(w, http.StatusBadRequest, "market is required")
		return
	}
	traderID, err := uuid.Parse(req.TraderID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "trader_id must be a UUID")
		return
	}
	var side lob.OrderSide
	switch req.Side {
	case "buy":
		side = lob.SideBuy
	case "sell":
		side = lob.SideSell
	default:
		respondError(w, http.StatusBadRequest, "side must be buy or sell")
		return
	}
	price, err := lob.ParseDecimal(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price: "+err.Error())
		return
	}
	qty, err := lob.ParseDecimal(req.Quantity)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quantity: "+err.Error())
		return
	}

	orderID := s.nextOrderID.Add(1)
	order, err := lob.NewOrder(orderID, traderID, req.Market, side, lob.TypeLimit, price, qty, time.Now())
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}

	events, err := s.engine.Submit(req.Market, order)
	if err != nil {
		s.log.Warn("submit rejected",
			zap.String("market", req.Market),
			zap.Uint64("order_id", orderID),
			zap.Error(err))
		respondError(w, statusFromError(err), err.Error())
		return
	}

	status := http.StatusOK
	if len(events) > 0 && events[len(events)-1].Kind == lob.EventOrderPlaced {
		status = http.StatusCreated
	}
	respondJSON(w, status, SubmitOrderResponse{OrderID: orderID, Events: eventsJSON(events)})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	market := vars["market"]
	orderID, err := strconv.ParseUint(vars["order_id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "order_id must be an unsigned integer")
		return
	}

	event, err := s.engine.Cancel(market, orderID)
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, eventJSON(event))
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	market := mux.Vars(r)["market"]

	depth, err := s.engine.Depth(market)
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, DepthResponse{
		Market: market,
		Bids:   depthJSON(depth.Bids),
		Asks:   depthJSON(depth.Asks),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"markets":        s.engine.Markets(),
	})
}

func eventsJSON(events []lob.Event) []EventJSON {
	out := make([]EventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, eventJSON(e))
	}
	return out
}

func eventJSON(e lob.Event) EventJSON {
	j := EventJSON{Type: e.Kind.String()}
	switch e.Kind {
	case lob.EventOrderPlaced:
		j.Placed = &PlacedJSON{
			OrderID:   e.Placed.OrderID,
			TraderID:  e.Placed.TraderID.String(),
			Market:    e.Placed.Market,
			Side:      e.Placed.Side.String(),
			Type:      e.Placed.Type.String(),
			Price:     e.Placed.Price.String(),
			Quantity:  e.Placed.Qty.String(),
			Timestamp: e.Placed.Timestamp,
		}
	case lob.EventOrderTraded:
		j.Traded = &TradeJSON{
			TradeID:       e.Trade.ID,
			Market:        e.Trade.Market,
			MakerOrderID:  e.Trade.MakerOrderID,
			TakerOrderID:  e.Trade.TakerOrderID,
			MakerTraderID: e.Trade.MakerTraderID.String(),
			TakerTraderID: e.Trade.TakerTraderID.String(),
			Quantity:      e.Trade.Qty.String(),
			Price:         e.Trade.Price.String(),
			Timestamp:     e.Trade.Timestamp,
		}
	case lob.EventOrderCancelled:
		j.Cancelled = &CancelledJSON{
			OrderID:   e.Cancelled.OrderID,
			Timestamp: e.Cancelled.Timestamp,
		}
	}
	return j
}

func depthJSON(levels []lob.DepthLevel) []DepthLevelJSON {
	out := make([]DepthLevelJSON, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, DepthLevelJSON{Price: lvl.Price.String(), Quantity: lvl.Qty.String()})
	}
	return out
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, lob.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, lob.ErrOrderNotFound), errors.Is(err, lob.ErrMarketNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}
