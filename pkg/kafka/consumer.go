package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Consumer wraps Kafka readers with a worker pool, retry with jittered
// backoff, and an optional dead-letter topic.
type Consumer struct {
	cfg      *ConsumerConfig
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	msgChan  chan *message
	dlq      *kafka.Writer
	stopChan chan struct{}
	stopOnce sync.Once
	readerWg sync.WaitGroup
	workerWg sync.WaitGroup
}

type message struct {
	topic string
	data  []byte
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:    "default",
		Workers:    1,
		RetryMax:   3,
		BackoffMin: 50 * time.Millisecond,
		BackoffMax: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:      cfg,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]MessageHandler),
		msgChan:  make(chan *message, 16),
		stopChan: make(chan struct{}),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	return c, nil
}

// RegisterHandler registers a message handler for its topic.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		log.Printf("warn: handler already registered for topic %s", topic)
		return
	}
	c.handlers[topic] = handler
}

// Start launches readers and the worker pool. Non-blocking.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers: c.cfg.Brokers,
			Topic:   topic,
			GroupID: c.cfg.GroupID,
		})
	}

	for i := 0; i < c.cfg.Workers; i++ {
		c.workerWg.Add(1)
		go c.worker()
	}
	for topic, reader := range c.readers {
		c.readerWg.Add(1)
		go c.consume(topic, reader)
	}
	log.Printf("kafka consumer: started topics=%d workers=%d", len(c.readers), c.cfg.Workers)
	return nil
}

// Stop shuts the consumer down, waiting up to the context deadline.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		close(c.stopChan)

		done := make(chan struct{})
		go func() {
			c.readerWg.Wait()
			close(c.msgChan)
			c.workerWg.Wait()
			close(done)
		}()
		select {
		case <-ctx.Done():
			stopErr = fmt.Errorf("waiting for consumer stop: %w", ctx.Err())
		case <-done:
		}

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				log.Printf("close reader %s: %v", topic, err)
			}
		}
		if c.dlq != nil {
			_ = c.dlq.Close()
		}
	})
	return stopErr
}

func (c *Consumer) consume(topic string, reader *kafka.Reader) {
	defer c.readerWg.Done()
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := reader.ReadMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				log.Printf("read %s: %v", topic, err)
			}
			continue
		}

		select {
		case c.msgChan <- &message{topic: topic, data: msg.Value}:
		case <-c.stopChan:
			return
		}
	}
}

func (c *Consumer) worker() {
	defer c.workerWg.Done()
	for msg := range c.msgChan {
		handler, ok := c.handlers[msg.topic]
		if !ok {
			continue
		}
		if err := c.handleWithRetry(handler, msg); err != nil {
			log.Printf("handle %s: giving up: %v", msg.topic, err)
			c.deadLetter(msg)
		}
	}
}

func (c *Consumer) handleWithRetry(handler MessageHandler, msg *message) error {
	var err error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			time.Sleep(c.backoff(attempt))
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			err = handler.Handle(context.Background(), msg.data)
		}()
		if err == nil {
			return nil
		}
	}
	return err
}

// backoff returns an exponentially growing delay with jitter, capped at max.
func (c *Consumer) backoff(attempt int) time.Duration {
	d := c.cfg.BackoffMin << uint(attempt-1)
	if d > c.cfg.BackoffMax {
		d = c.cfg.BackoffMax
	}
	return d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
}

func (c *Consumer) deadLetter(msg *message) {
	if c.dlq == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic: c.cfg.DLQTopic,
		Value: msg.data,
		Time:  time.Now(),
	})
	if err != nil {
		log.Printf("dlq write: %v", err)
	}
}
