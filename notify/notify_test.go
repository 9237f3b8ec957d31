package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type ackEvent struct {
	tag     uint64
	kind    string
	requeue bool
}

type fakeAcker struct {
	events chan ackEvent
}

func (a *fakeAcker) Ack(tag uint64, _ bool) error {
	a.events <- ackEvent{tag: tag, kind: "ack"}
	return nil
}

func (a *fakeAcker) Nack(tag uint64, _ bool, requeue bool) error {
	a.events <- ackEvent{tag: tag, kind: "nack", requeue: requeue}
	return nil
}

func (a *fakeAcker) Reject(tag uint64, requeue bool) error {
	a.events <- ackEvent{tag: tag, kind: "reject", requeue: requeue}
	return nil
}

type chanConsumer struct {
	ch chan amqp.Delivery
}

func (c *chanConsumer) Consume(context.Context) (<-chan amqp.Delivery, error) {
	return c.ch, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []EpassMessage
	err  error
}

func (m *recordingMailer) SendEpass(_ context.Context, msg EpassMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func delivery(t *testing.T, acker *fakeAcker, tag uint64, body interface{}, redelivered bool) amqp.Delivery {
	t.Helper()
	raw, ok := body.([]byte)
	if !ok {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	return amqp.Delivery{Acknowledger: acker, DeliveryTag: tag, Body: raw, Redelivered: redelivered}
}

func waitAck(t *testing.T, acker *fakeAcker) ackEvent {
	t.Helper()
	select {
	case ev := <-acker.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for acknowledgement")
		return ackEvent{}
	}
}

func startWorker(t *testing.T, mailer Mailer) (*Worker, chan amqp.Delivery) {
	t.Helper()
	ch := make(chan amqp.Delivery)
	logger := zerolog.Nop()
	w := NewWorker(&chanConsumer{ch: ch}, mailer, &logger)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, ch
}

func TestWorkerSendsAndAcks(t *testing.T) {
	mailer := &recordingMailer{}
	_, ch := startWorker(t, mailer)
	acker := &fakeAcker{events: make(chan ackEvent, 4)}

	ch <- delivery(t, acker, 1, EpassMessage{RegistrationID: "EP-1", Email: "asha@example.com"}, false)
	if ev := waitAck(t, acker); ev.kind != "ack" || ev.tag != 1 {
		t.Fatalf("expected ack for tag 1, got %+v", ev)
	}
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if len(mailer.sent) != 1 || mailer.sent[0].RegistrationID != "EP-1" {
		t.Fatalf("unexpected sent mail: %+v", mailer.sent)
	}
}

func TestWorkerRejectsMalformed(t *testing.T) {
	_, ch := startWorker(t, &recordingMailer{})
	acker := &fakeAcker{events: make(chan ackEvent, 4)}

	ch <- delivery(t, acker, 7, []byte("{not json"), false)
	if ev := waitAck(t, acker); ev.kind != "reject" || ev.requeue {
		t.Fatalf("expected reject without requeue, got %+v", ev)
	}
}

func TestWorkerRequeuesOnce(t *testing.T) {
	_, ch := startWorker(t, &recordingMailer{err: errors.New("smtp down")})
	acker := &fakeAcker{events: make(chan ackEvent, 4)}
	msg := EpassMessage{RegistrationID: "EP-2", Email: "ravi@example.com"}

	ch <- delivery(t, acker, 2, msg, false)
	if ev := waitAck(t, acker); ev.kind != "nack" || !ev.requeue {
		t.Fatalf("expected nack with requeue, got %+v", ev)
	}
	ch <- delivery(t, acker, 3, msg, true)
	if ev := waitAck(t, acker); ev.kind != "nack" || ev.requeue {
		t.Fatalf("expected redelivered message to be dropped, got %+v", ev)
	}
}

func TestSMTPMailer(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 587, "user", "pass", "passes@example.com")
	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	err := m.SendEpass(context.Background(), EpassMessage{
		RegistrationID: "EP-1",
		FullName:       "Asha Rao",
		Email:          "asha@example.com",
		PassURL:        "https://pass.example.com/verify?id=EP-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || len(gotTo) != 1 || gotTo[0] != "asha@example.com" {
		t.Fatalf("unexpected envelope: %s %v", gotAddr, gotTo)
	}
	body := string(gotMsg)
	for _, want := range []string{"Subject: Your e-pass EP-1", "Hello Asha Rao", "verify?id=EP-1"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in message:\n%s", want, body)
		}
	}

	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("535 auth failed") }
	if err := m.SendEpass(context.Background(), EpassMessage{Email: "asha@example.com"}); err == nil {
		t.Fatalf("expected send error")
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (NopPublisher{}).PublishEpassIssued(context.Background(), EpassMessage{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
