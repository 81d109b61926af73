package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/mind-engage/examprep/internal/exam"
)

const RoutingResultRecorded = "result.recorded"

// ResultRecorded is published after a submission is scored and stored.
type ResultRecorded struct {
	ResultID         string    `json:"resultId"`
	UserID           string    `json:"userId"`
	Subject          string    `json:"subject"`
	CorrectAnswers   int       `json:"correctAnswers"`
	Total            int       `json:"total"`
	Percent          float64   `json:"percent"`
	Passed           bool      `json:"passed"`
	Duration         int       `json:"duration"`
	WrongQuestionIDs []string  `json:"wrongQuestionIds"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

// NewResultRecorded summarises r for subscribers.
func NewResultRecorded(r exam.Result) ResultRecorded {
	ev := ResultRecorded{
		ResultID:       r.ID,
		UserID:         r.UserID,
		Subject:        r.Subject,
		CorrectAnswers: r.Scored.CorrectAnswers,
		Total:          len(r.Answers),
		Percent:        r.Scored.Percent(),
		Passed:         r.Scored.Passed,
		Duration:       r.Scored.Duration,
		SubmittedAt:    r.SubmittedAt,
	}
	for _, a := range r.Answers {
		if !a.IsCorrect {
			ev.WrongQuestionIDs = append(ev.WrongQuestionIDs, a.QuestionID)
		}
	}
	return ev
}

type Publisher interface {
	PublishResult(ctx context.Context, ev ResultRecorded) error
	Close() error
}

type EventPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
}

// NewEventPublisher connects to RabbitMQ. An empty URI yields a disabled
// publisher that drops events.
func NewEventPublisher(rabbitURI, exchange string) (*EventPublisher, error) {
	if rabbitURI == "" {
		log.Println("RabbitMQ URI is empty, result events are disabled")
		return &EventPublisher{exchange: exchange}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	log.Printf("event publisher ready on exchange %s", exchange)
	return &EventPublisher{conn: conn, channel: channel, exchange: exchange, enabled: true}, nil
}

func (p *EventPublisher) PublishResult(ctx context.Context, ev ResultRecorded) error {
	if !p.enabled {
		return nil
	}
	msg, err := Message(ev)
	if err != nil {
		return err
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, RoutingResultRecorded, false, false, msg); err != nil {
		return fmt.Errorf("publish result event: %w", err)
	}
	return nil
}

// Message builds the AMQP publishing for ev.
func Message(ev ResultRecorded) (amqp091.Publishing, error) {
	body, err := json.Marshal(struct {
		Type    string         `json:"type"`
		Payload ResultRecorded `json:"payload"`
	}{RoutingResultRecorded, ev})
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal result event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    ev.SubmittedAt,
		MessageId:    ev.ResultID,
		Body:         body,
		Headers: amqp091.Table{
			"event_type": RoutingResultRecorded,
			"user_id":    ev.UserID,
			"subject":    ev.Subject,
		},
	}, nil
}

func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
