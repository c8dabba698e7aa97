package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ffhan/lob"
)

const writeTimeout = 5 * time.Second

// Publisher forwards committed book events to a Kafka topic. Delivery is
// best effort: a failed write is logged and dropped, never fed back into
// matching.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewPublisher(brokers []string, topic string, log *zap.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		log: log,
	}
}

// envelope is the wire form of a single book event.
type envelope struct {
	Type      string     `json:"type"`
	Market    string     `json:"market"`
	Placed    *placed    `json:"order_placed,omitempty"`
	Trade     *trade     `json:"order_traded,omitempty"`
	Cancelled *cancelled `json:"order_cancelled,omitempty"`
}

type placed struct {
	OrderID   uint64    `json:"order_id"`
	TraderID  string    `json:"trader_id"`
	Side      string    `json:"side"`
	Price     string    `json:"price"`
	Quantity  string    `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

type trade struct {
	TradeID       uint64    `json:"trade_id"`
	MakerOrderID  uint64    `json:"maker_order_id"`
	TakerOrderID  uint64    `json:"taker_order_id"`
	MakerTraderID string    `json:"maker_trader_id"`
	TakerTraderID string    `json:"taker_trader_id"`
	Quantity      string    `json:"quantity"`
	Price         string    `json:"price"`
	Timestamp     time.Time `json:"timestamp"`
}

type cancelled struct {
	OrderID   uint64    `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleEvents implements lob.EventHandler. Events of one command go out as
// one batch, keyed by market so a partition preserves per-market order.
func (p *Publisher) HandleEvents(market string, events []lob.Event) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		env := toEnvelope(market, e)
		value, err := json.Marshal(env)
		if err != nil {
			p.log.Error("marshal event", zap.String("market", market), zap.Error(err))
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(market),
			Value: value,
		})
	}
	if len(msgs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.log.Error("publish events",
			zap.String("market", market),
			zap.Int("count", len(msgs)),
			zap.Error(err))
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func toEnvelope(market string, e lob.Event) envelope {
	env := envelope{Type: e.Kind.String(), Market: market}
	switch e.Kind {
	case lob.EventOrderPlaced:
		env.Placed = &placed{
			OrderID:   e.Placed.OrderID,
			TraderID:  e.Placed.TraderID.String(),
			Side:      e.Placed.Side.String(),
			Price:     e.Placed.Price.String(),
			Quantity:  e.Placed.Qty.String(),
			Timestamp: e.Placed.Timestamp,
		}
	case lob.EventOrderTraded:
		env.Trade = &trade{
			TradeID:       e.Trade.ID,
			MakerOrderID:  e.Trade.MakerOrderID,
			TakerOrderID:  e.Trade.TakerOrderID,
			MakerTraderID: e.Trade.MakerTraderID.String(),
			TakerTraderID: e.Trade.TakerTraderID.String(),
			Quantity:      e.Trade.Qty.String(),
			Price:         e.Trade.Price.String(),
			Timestamp:     e.Trade.Timestamp,
		}
	case lob.EventOrderCancelled:
		env.Cancelled = &cancelled{
			OrderID:   e.Cancelled.OrderID,
			Timestamp: e.Cancelled.Timestamp,
		}
	}
	return env
}
