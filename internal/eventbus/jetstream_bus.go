package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"
)

// SubjectPrefix префикс subject'ов событий симуляции
const SubjectPrefix = "horde.events"

// JetStreamBus реализует EventBus поверх NATS JetStream.
// Используется, когда события забегов нужны внешним потребителям.
type JetStreamBus struct {
	nc        *nats.Conn
	js        nats.JetStreamContext
	stream    string
	published uint64
	consumed  uint64
	dropped   uint64

	mu   sync.Mutex
	subs []*nats.Subscription
}

var _ EventBus = (*JetStreamBus)(nil)

// NewJetStreamBus подключается к кластеру NATS и гарантирует наличие стрима.
// url: nats://127.0.0.1:4222, stream: "HORDE".
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = "HORDE"
	}

	nc, err := nats.Connect(url, nats.Name("horde-simrun"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Drain()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if _, err = js.StreamInfo(stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{SubjectPrefix + ".>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    retention,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			nc.Drain()
			return nil, fmt.Errorf("add stream: %w", err)
		}
	}

	return &JetStreamBus{nc: nc, js: js, stream: stream}, nil
}

// Subject subject для типа события: horde.events.<type>
func Subject(eventType string) string {
	if eventType == "" {
		eventType = "unknown"
	}
	return SubjectPrefix + "." + strings.ReplaceAll(eventType, ".", "_")
}

// Publish сериализует Envelope в JSON и публикует в subject события.
// Низкоприоритетные события отправляются без ожидания подтверждения.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &nats.Msg{Subject: Subject(ev.EventType), Data: data, Header: nats.Header{}}
	msg.Header.Set(nats.MsgIdHdr, ev.ID)

	if ev.Priority < 5 {
		if _, err := jb.js.PublishMsgAsync(msg); err != nil {
			atomic.AddUint64(&jb.dropped, 1)
			return nil
		}
		atomic.AddUint64(&jb.published, 1)
		return nil
	}

	if _, err := jb.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		return err
	}
	atomic.AddUint64(&jb.published, 1)
	return nil
}

// Subscribe создаёт durable consumer и вызывает handler асинхронно.
// Фильтр по одному типу уходит в subject, остальное проверяется на месте.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subj := SubjectPrefix + ".>"
	if len(f.Types) == 1 {
		subj = Subject(f.Types[0])
	}

	durable := nats.Durable(fmt.Sprintf("sub_%d", time.Now().UnixNano()))

	natSub, err := jb.js.Subscribe(subj, func(msg *nats.Msg) {
		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err == nil && matchFilter(&ev, f) {
			h(ctx, &ev)
			atomic.AddUint64(&jb.consumed, 1)
		}
		_ = msg.Ack()
	}, nats.ManualAck(), durable, nats.AckWait(30*time.Second))
	if err != nil {
		return nil, err
	}

	jb.mu.Lock()
	jb.subs = append(jb.subs, natSub)
	jb.mu.Unlock()
	return &jetSub{natSub}, nil
}

// jetSub обёртка вокруг *nats.Subscription чтобы удовлетворить наш интерфейс.
type jetSub struct {
	s *nats.Subscription
}

func (j *jetSub) Unsubscribe() {
	_ = j.s.Unsubscribe()
}

// Metrics возвращает текущие метрики.
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&jb.published),
		Consumed:  atomic.LoadUint64(&jb.consumed),
		Dropped:   atomic.LoadUint64(&jb.dropped),
		InFlight:  jb.js.PublishAsyncPending(),
	}
}

// Close дожидается асинхронных публикаций и закрывает соединение
func (jb *JetStreamBus) Close() {
	select {
	case <-jb.js.PublishAsyncComplete():
	case <-time.After(5 * time.Second):
	}
	jb.mu.Lock()
	for _, s := range jb.subs {
		_ = s.Unsubscribe()
	}
	jb.subs = nil
	jb.mu.Unlock()
	_ = jb.nc.Drain()
}
