package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

// amqpConsumer часть *amqp.Channel, нужная потребителю.
type amqpConsumer interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// RabbitGenerationQueue реализует очередь задач поверх AMQP.
// После закрытия канала или соединения следующий вызов открывает их заново.
type RabbitGenerationQueue struct {
	url   string
	queue string

	mu           sync.Mutex
	conn         *amqp.Connection
	publishCh    *amqp.Channel
	consumeCh    amqpConsumer
	deliveries   <-chan amqp.Delivery
	openConsumer func() (amqpConsumer, error)
}

var _ domain.GenerationQueue = (*RabbitGenerationQueue)(nil)

// NewRabbitGenerationQueue подключается к брокеру и объявляет устойчивую очередь.
func NewRabbitGenerationQueue(amqpURL, queue string) (*RabbitGenerationQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	q := &RabbitGenerationQueue{url: amqpURL, queue: queue}
	q.openConsumer = q.openConsumeChannel
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, err := q.publisher(); err != nil {
		if q.conn != nil {
			_ = q.conn.Close()
		}
		return nil, err
	}
	return q, nil
}

// channel открывает канал, при необходимости переподключаясь к брокеру. Вызывается под mu.
func (q *RabbitGenerationQueue) channel() (*amqp.Channel, error) {
	if q.conn == nil || q.conn.IsClosed() {
		start := time.Now()
		conn, err := amqp.Dial(q.url)
		metrics.ObserveNetworkRequest("rabbitmq", "dial", q.queue, start, err)
		if err != nil {
			return nil, fmt.Errorf("dial amqp: %w", err)
		}
		q.conn = conn
		q.publishCh = nil
	}
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, nil
}

// publisher возвращает живой канал публикации. Вызывается под mu.
func (q *RabbitGenerationQueue) publisher() (*amqp.Channel, error) {
	if q.publishCh != nil && !q.publishCh.IsClosed() && q.conn != nil && !q.conn.IsClosed() {
		return q.publishCh, nil
	}
	ch, err := q.channel()
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(q.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	q.publishCh = ch
	return ch, nil
}

func (q *RabbitGenerationQueue) openConsumeChannel() (amqpConsumer, error) {
	ch, err := q.channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitGenerationQueue) Enqueue(ctx context.Context, job domain.GenerationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, err := q.publisher()
	if err != nil {
		return err
	}
	start := time.Now()
	err = ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.RequestedAt,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Receive ждёт следующую задачу. Подтверждение выполняется через AckFunc.
func (q *RabbitGenerationQueue) Receive(ctx context.Context) (domain.GenerationJob, domain.AckFunc, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.GenerationJob{}, nil, err
	}
	for {
		select {
		case <-ctx.Done():
			return domain.GenerationJob{}, nil, ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				q.dropConsumer(deliveries)
				return domain.GenerationJob{}, nil, errors.New("rabbitmq: delivery channel closed")
			}
			var job domain.GenerationJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				_ = d.Nack(false, false)
				return domain.GenerationJob{}, nil, fmt.Errorf("decode job: %w", err)
			}
			ack := func(success bool) error {
				if success {
					return d.Ack(false)
				}
				return d.Nack(false, true)
			}
			return job, ack, nil
		}
	}
}

func (q *RabbitGenerationQueue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	ch, err := q.openConsumer()
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.consumeCh = ch
	q.deliveries = deliveries
	return deliveries, nil
}

// dropConsumer забывает закрытый поток доставок, чтобы следующий Receive подписался заново.
func (q *RabbitGenerationQueue) dropConsumer(closed <-chan amqp.Delivery) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != closed {
		return
	}
	if q.consumeCh != nil {
		_ = q.consumeCh.Close()
	}
	q.consumeCh = nil
	q.deliveries = nil
}

// Close закрывает каналы и соединение.
func (q *RabbitGenerationQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.consumeCh != nil {
		_ = q.consumeCh.Close()
		q.consumeCh = nil
		q.deliveries = nil
	}
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}
