package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"SignalSynth/internal/domain/models"
	pkgkafka "SignalSynth/pkg/kafka"
	applogger "SignalSynth/pkg/logger"
)

// SignalEvent is the wire form of one emitted signal record. Indicator
// values use pointers so NaN serializes as null; a plain "Buy" record can
// legally carry NaN slopes, which encoding/json refuses to marshal as
// float64.
type SignalEvent struct {
	Timeframe string            `json:"timeframe"`
	Datetime  string            `json:"datetime"`
	Token     string            `json:"token"`
	Signal    string            `json:"signal"`
	Close     *float64          `json:"close"`
	CCI       *float64          `json:"cci"`
	StochK    *float64          `json:"stoch_k"`
	StochD    *float64          `json:"stoch_d"`
	SlopeK    *float64          `json:"slope_k"`
	SlopeD    *float64          `json:"slope_d"`
	ADX       *float64          `json:"adx"`
	PlusDI    *float64          `json:"plus_di"`
	MinusDI   *float64          `json:"minus_di"`
	Trends    map[string]string `json:"trends,omitempty"`
	EmittedAt time.Time         `json:"emitted_at"`
}

// NewSignalEvent builds the wire event for one record.
func NewSignalEvent(timeframe string, rec models.SignalRecord) SignalEvent {
	return SignalEvent{
		Timeframe: timeframe,
		Datetime:  rec.Time.Format("2006-01-02 15:04:05"),
		Token:     rec.Token,
		Signal:    string(rec.Signal),
		Close:     eventValue(rec.Close),
		CCI:       eventValue(rec.CCI),
		StochK:    eventValue(rec.K),
		StochD:    eventValue(rec.D),
		SlopeK:    eventValue(rec.SlopeK),
		SlopeD:    eventValue(rec.SlopeD),
		ADX:       eventValue(rec.ADX),
		PlusDI:    eventValue(rec.PlusDI),
		MinusDI:   eventValue(rec.MinusDI),
		Trends:    rec.TrendBy,
		EmittedAt: time.Now().UTC(),
	}
}

// eventValue maps NaN to a nil pointer, serialized as JSON null.
func eventValue(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// KafkaPublisher implements Publisher on a Kafka topic, keyed by token so
// per symbol ordering holds across partitions.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string, l *applogger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, l: l}
}

func (p *KafkaPublisher) PublishSignals(ctx context.Context, timeframe string, records []models.SignalRecord) error {
	if len(records) == 0 {
		return nil
	}

	messages := make([]pkgkafka.Message, 0, len(records))
	for _, rec := range records {
		messages = append(messages, pkgkafka.Message{
			Key:   []byte(rec.Token),
			Value: NewSignalEvent(timeframe, rec),
		})
	}

	if err := p.producer.PublishBatch(ctx, p.topic, messages); err != nil {
		return fmt.Errorf("publish signals: %w", err)
	}

	if p.l != nil {
		p.l.Info("signals published",
			applogger.String("topic", p.topic),
			applogger.String("timeframe", timeframe),
			applogger.Int("count", len(records)))
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.producer.Close() }

// NopPublisher is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishSignals(context.Context, string, []models.SignalRecord) error { return nil }
func (NopPublisher) Close() error                                                        { return nil }
