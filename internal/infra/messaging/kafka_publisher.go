// Package messaging は注文イベントの送信先をまとめる。
package messaging

import (
	"context"
	"fmt"
	"time"

	"cakedelight/internal/domain/model"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const TypeOrderPlaced = "order.placed"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OrderPlaced は注文確定時に送るイベント本体
type OrderPlaced struct {
	Type       string            `json:"type"`
	OrderID    string            `json:"order_id"`
	UserID     string            `json:"user_id"`
	Status     model.OrderStatus `json:"status"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Items      []OrderPlacedItem `json:"items"`
	OccurredAt time.Time         `json:"occurred_at"`
}

type OrderPlacedItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func NewOrderPlaced(o model.Order, items []model.OrderItem, at time.Time) OrderPlaced {
	ev := OrderPlaced{
		Type:       TypeOrderPlaced,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		Items:      make([]OrderPlacedItem, 0, len(items)),
		OccurredAt: at.UTC(),
	}
	for _, it := range items {
		ev.Items = append(ev.Items, OrderPlacedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPriceSnapshot,
		})
	}
	return ev
}

// kafka.Writerのうち使う部分（テストで差し替える）
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Sugar().Errorf("kafka writer: "+msg, args...)
		}),
	}
	return newKafkaPublisher(w)
}

func newKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, now: time.Now}
}

// PublishOrderPlaced は注文IDをキーにして送る（同じ注文は同じパーティション）
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, o model.Order, items []model.OrderItem) error {
	body, err := json.Marshal(NewOrderPlaced(o, items, p.now()))
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.ID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeOrderPlaced)},
		},
	}); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Kafkaを使わないとき
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, model.Order, []model.OrderItem) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
