package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeNotificationSent   MessageType = "notification.sent"
	MessageTypeNotificationFailed MessageType = "notification.failed"
	MessageTypeWelcomeRequested   MessageType = "email.welcome"
)

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NotificationOutcomePayload — результат обработки напоминания диспетчером.
type NotificationOutcomePayload struct {
	NotificationID uuid.UUID `json:"notification_id"`
	QuietBlockID   uuid.UUID `json:"quiet_block_id"`
	UserID         uuid.UUID `json:"user_id"`
	Status         string    `json:"status"` // sent или failed
	Error          string    `json:"error,omitempty"`
	At             time.Time `json:"at"`
}

// WelcomePayload — запрос на отправку приветственного письма.
type WelcomePayload struct {
	UserID uuid.UUID `json:"user_id,omitempty"`
	Email  string    `json:"email"`
	Name   string    `json:"name,omitempty"`
}

// Publisher публикует сообщения в RabbitMQ.
// Публикации сериализуются: канал AMQP общий для всех горутин.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
	mu     sync.Mutex
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishNotificationOutcome публикует notification.sent или notification.failed.
func (p *Publisher) PublishNotificationOutcome(ctx context.Context, payload NotificationOutcomePayload) error {
	msgType, key := MessageTypeNotificationSent, RoutingKeyNotificationSent
	if payload.Status != "sent" {
		msgType, key = MessageTypeNotificationFailed, RoutingKeyNotificationFailed
	}

	return p.Publish(ctx, ExchangeNotifications, key, newMessage(msgType, payload))
}

// PublishWelcomeRequested ставит в очередь отправку приветственного письма.
// Потребитель: процесс диспетчера.
func (p *Publisher) PublishWelcomeRequested(ctx context.Context, payload WelcomePayload) error {
	return p.Publish(ctx, ExchangeEmails, RoutingKeyWelcome, newMessage(MessageTypeWelcomeRequested, payload))
}

func newMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
