package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBus(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Dispatches to named and catch-all handlers in order", func(t *testing.T) {
		bus := NewBus()
		var got []string
		bus.SubscribeAll(func(_ context.Context, e Event) error {
			got = append(got, "all:"+string(e.Name))
			return nil
		})
		bus.Subscribe(ReservationConfirmed, func(_ context.Context, e Event) error {
			got = append(got, "confirmed:"+e.Payload["reservation_id"])
			return nil
		})

		bus.Publish(ctx, New(ReservationConfirmed, at, "reservation_id", "r-1"))
		bus.Publish(ctx, New(ReservationCanceled, at, "reservation_id", "r-2"))

		assert.Equal(t, []string{"all:reservation.confirmed", "confirmed:r-1", "all:reservation.canceled"}, got)
	})

	t.Run("Failing and panicking handlers do not stop delivery", func(t *testing.T) {
		bus := NewBus()
		delivered := false
		bus.SubscribeAll(func(context.Context, Event) error { return errors.New("boom") })
		bus.SubscribeAll(func(context.Context, Event) error { panic("observer bug") })
		bus.SubscribeAll(func(context.Context, Event) error {
			delivered = true
			return nil
		})

		assert.NotPanics(t, func() { bus.Publish(ctx, New(FineApplied, at)) })
		assert.True(t, delivered)
	})

	t.Run("LogObserver never fails", func(t *testing.T) {
		assert.NoError(t, LogObserver(ctx, New(DepositHeld, at, "amount", "189.00")))
	})
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Publish(context.Background(), New(ReservationCreated, time.Now()))
	r.Publish(context.Background(), New(ReservationConfirmed, time.Now()))
	assert.Equal(t, []Name{ReservationCreated, ReservationConfirmed}, r.Names())
	r.Reset()
	assert.Empty(t, r.Events())
}

type MockMailer struct {
	mock.Mock
	mu   sync.Mutex
	sent []EmailMessage
}

func (m *MockMailer) Send(ctx context.Context, msg EmailMessage) error {
	args := m.Called(ctx, msg)
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return args.Error(0)
}

func TestEmailObserver(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Formats desk email", func(t *testing.T) {
		msg := FormatDeskEmail("desk@fleet.test", New(DepositForfeited, at, "reservation_id", "r-9", "amount", "40.00"))
		assert.Equal(t, "desk@fleet.test", msg.To)
		assert.Equal(t, "[fleet] deposit.forfeited r-9", msg.Subject)
		assert.Equal(t, "deposit.forfeited at 2024-03-01 09:00:00 UTC\n\namount: 40.00\nreservation_id: r-9\n", msg.Body)
	})

	t.Run("Queue delivers through mailer", func(t *testing.T) {
		mailer := new(MockMailer)
		mailer.On("Send", mock.Anything, mock.AnythingOfType("events.EmailMessage")).Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		queue := NewEmailQueue(mailer, 2, 10)
		queue.Start(ctx)

		handler := EmailObserver(queue, "desk@fleet.test")
		require.NoError(t, handler(ctx, New(ReservationConfirmed, at, "reservation_id", "r-1")))

		assert.Eventually(t, func() bool {
			mailer.mu.Lock()
			defer mailer.mu.Unlock()
			return len(mailer.sent) == 1
		}, time.Second, 10*time.Millisecond)

		cancel()
		queue.Wait()
		mailer.AssertExpectations(t)
	})

	t.Run("Start twice launches workers once", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		queue := NewEmailQueue(new(MockMailer), 2, 1)
		queue.Start(ctx)
		assert.NotPanics(t, func() { queue.Start(ctx) })

		cancel()
		assert.NotPanics(t, queue.Wait)
	})

	t.Run("Full queue is reported", func(t *testing.T) {
		queue := NewEmailQueue(new(MockMailer), 1, 1)
		require.NoError(t, queue.Enqueue(EmailMessage{To: "a"}))
		assert.Error(t, queue.Enqueue(EmailMessage{To: "b"}))
	})
}
