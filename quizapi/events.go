// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizapi

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

// AnswersSubmittedEvent is published once per newly accepted submission
type AnswersSubmittedEvent struct {
	SubmissionID  string    `json:"submission_id"`
	ParticipantID string    `json:"participant_id"`
	DeviceID      string    `json:"device_id"`
	QuizID        string    `json:"quiz_id"`
	Score         int       `json:"score"`
	Total         int       `json:"total"`
	CompletedAt   time.Time `json:"completed_at"`
	ReceivedAt    time.Time `json:"received_at"`
}

// EventPublisher fans accepted submissions out to downstream consumers (leaderboards, reports)
type EventPublisher interface {
	PublishAnswersSubmitted(ctx context.Context, ev AnswersSubmittedEvent) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishAnswersSubmitted(context.Context, AnswersSubmittedEvent) error { return nil }

// AMQPPublisher publishes events to a topic exchange on RabbitMQ
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger

	// amqp.Channel is not safe for concurrent publishing
	mu sync.Mutex
	ch *amqp.Channel
}

// DialAMQPPublisher connects to url and declares the durable topic exchange
func DialAMQPPublisher(url string, logger *slog.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", EventsExchange, err)
	}

	return &AMQPPublisher{
		conn:     conn,
		ch:       ch,
		exchange: EventsExchange,
		logger:   logger,
	}, nil
}

func (p *AMQPPublisher) PublishAnswersSubmitted(ctx context.Context, ev AnswersSubmittedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		AnswersSubmittedRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    ev.ReceivedAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", AnswersSubmittedRoutingKey, err)
	}
	return nil
}

// Close closes the channel and the connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.logger.Warn("Failed to close AMQP channel", "error", err)
	}
	return p.conn.Close()
}
