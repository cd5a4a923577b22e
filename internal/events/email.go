package events

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"fleetrent-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailMessage is a plain-text notification to the fleet desk.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type SendGridMailer struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{apiKey: apiKey, fromEmail: fromEmail, fromName: fromName}
}

func (s *SendGridMailer) Send(ctx context.Context, msg EmailMessage) error {
	logger.ExternalServiceCall("sendgrid", "send", "to", msg.To, "subject", msg.Subject)
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, recipient, msg.Body, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		err = fmt.Errorf("failed to send email: %w", err)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "send", nil, "status", response.StatusCode)
	return nil
}

// EmailQueue sends messages on background workers so publishing stays non-blocking.
type EmailQueue struct {
	mailer  Mailer
	jobs    chan EmailMessage
	workers int
	done    chan struct{}
	start   sync.Once
}

func NewEmailQueue(mailer Mailer, workers, queueSize int) *EmailQueue {
	if workers < 1 {
		workers = 1
	}
	return &EmailQueue{
		mailer:  mailer,
		jobs:    make(chan EmailMessage, queueSize),
		workers: workers,
		done:    make(chan struct{}),
	}
}

// Start launches the workers. They exit when ctx is canceled; Wait blocks until they have.
// Only the first call has any effect.
func (q *EmailQueue) Start(ctx context.Context) {
	q.start.Do(func() { q.launch(ctx) })
}

func (q *EmailQueue) launch(ctx context.Context) {
	remaining := make(chan struct{}, q.workers)
	for i := 0; i < q.workers; i++ {
		go func(id int) {
			defer func() { remaining <- struct{}{} }()
			q.worker(ctx, id)
		}(i)
	}
	go func() {
		for i := 0; i < q.workers; i++ {
			<-remaining
		}
		close(q.done)
	}()
}

func (q *EmailQueue) Wait() { <-q.done }

func (q *EmailQueue) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Email worker stopping", "worker", id)
			return
		case msg := <-q.jobs:
			if err := q.mailer.Send(ctx, msg); err != nil {
				logger.Warn("Email delivery failed", "worker", id, "to", msg.To, "error", err)
			}
		}
	}
}

func (q *EmailQueue) Enqueue(msg EmailMessage) error {
	select {
	case q.jobs <- msg:
		return nil
	default:
		return fmt.Errorf("email queue is full")
	}
}

// DeskNotifiedEvents are the events the fleet desk receives by email.
var DeskNotifiedEvents = []Name{ReservationConfirmed, ReservationCompleted, ReservationOverdue, DepositForfeited}

// EmailObserver formats an event for the fleet desk and queues it.
func EmailObserver(queue *EmailQueue, to string) Handler {
	return func(ctx context.Context, e Event) error {
		return queue.Enqueue(FormatDeskEmail(to, e))
	}
}

func FormatDeskEmail(to string, e Event) EmailMessage {
	keys := make([]string, 0, len(e.Payload))
	for k := range e.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body strings.Builder
	fmt.Fprintf(&body, "%s at %s\n\n", e.Name, e.OccurredAt.UTC().Format("2006-01-02 15:04:05 MST"))
	for _, k := range keys {
		fmt.Fprintf(&body, "%s: %s\n", k, e.Payload[k])
	}

	subject := fmt.Sprintf("[fleet] %s", e.Name)
	if id, ok := e.Payload["reservation_id"]; ok {
		subject += " " + id
	}
	return EmailMessage{To: to, Subject: subject, Body: body.String()}
}
