package notify

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Consumer interface {
	Consume(ctx context.Context) (<-chan amqp.Delivery, error)
}

type Mailer interface {
	SendEpass(ctx context.Context, msg EpassMessage) error
}

// Worker reads e-pass messages and mails them. Malformed messages are
// dropped; send failures are requeued once and then dropped.
type Worker struct {
	consumer Consumer
	mailer   Mailer
	log      *zerolog.Logger
	done     chan struct{}
	cancel   context.CancelFunc
}

func NewWorker(consumer Consumer, mailer Mailer, logger *zerolog.Logger) *Worker {
	return &Worker{
		consumer: consumer,
		mailer:   mailer,
		log:      logger,
		done:     make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.consumer.Consume(ctx)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go func() {
		defer close(w.done)
		w.log.Info().Msg("notification worker started")
		for {
			select {
			case <-cctx.Done():
				w.log.Info().Msg("notification worker stopped")
				return
			case d, ok := <-msgs:
				if !ok {
					w.log.Warn().Msg("delivery channel closed")
					return
				}
				w.handle(cctx, d)
			}
		}
	}()
	return nil
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var msg EpassMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.Email == "" {
		w.log.Error().Err(err).Bytes("body", d.Body).Msg("dropping malformed e-pass message")
		_ = d.Reject(false)
		return
	}

	if err := w.mailer.SendEpass(ctx, msg); err != nil {
		w.log.Warn().Err(err).
			Str("registration_id", msg.RegistrationID).
			Bool("redelivered", d.Redelivered).
			Msg("failed to send e-pass email")
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	w.log.Info().Str("registration_id", msg.RegistrationID).Msg("e-pass email sent")
	_ = d.Ack(false)
}
