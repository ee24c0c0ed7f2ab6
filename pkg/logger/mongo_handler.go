package logger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoQueueSize = 4096
	mongoBatchSize = 50
	mongoDrainTick = 2 * time.Second
)

// LogDocument is the shape written to MongoDB.
type LogDocument struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// MongoHandler is an slog.Handler that ships records to a MongoDB collection
// in the background. Handle never blocks: when the buffer is full the record
// is dropped.
type MongoHandler struct {
	client *mongo.Client
	sink   *batcher
	level  slog.Level
	attrs  []slog.Attr
	prefix string
}

// NewMongoHandler connects to uri and starts the drain goroutine. Records
// below INFO are not shipped. The caller must eventually call Close.
func NewMongoHandler(uri, db, collection string) (*MongoHandler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("logger: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("logger: mongo ping: %w", err)
	}

	col := client.Database(db).Collection(collection)
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "time", Value: -1}},
	})

	insert := func(docs []interface{}) {
		ictx, icancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer icancel()
		_, _ = col.InsertMany(ictx, docs)
	}

	return &MongoHandler{
		client: client,
		sink:   newBatcher(mongoQueueSize, mongoBatchSize, mongoDrainTick, insert),
		level:  slog.LevelInfo,
	}, nil
}

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	h.sink.offer(h.document(r))
	return nil
}

func (h *MongoHandler) document(r slog.Record) LogDocument {
	doc := LogDocument{Time: r.Time, Level: r.Level.String(), Msg: r.Message, Attrs: bson.M{}}
	add := func(a slog.Attr) bool {
		if a.Key == "request_id" {
			doc.RequestID = a.Value.String()
			return true
		}
		doc.Attrs[h.prefix+a.Key] = a.Value.Resolve().Any()
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)
	return doc
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// Close flushes pending records and disconnects. Safe to call more than once.
func (h *MongoHandler) Close() {
	h.sink.close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = h.client.Disconnect(ctx)
}

// batcher buffers documents and hands them to flush in groups of at most
// size, or whenever tick elapses.
type batcher struct {
	queue   chan LogDocument
	done    chan struct{}
	stopped chan struct{}
	size    int
	flush   func([]interface{})
}

func newBatcher(capacity, size int, tick time.Duration, flush func([]interface{})) *batcher {
	b := &batcher{
		queue:   make(chan LogDocument, capacity),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		size:    size,
		flush:   flush,
	}
	go b.loop(tick)
	return b
}

func (b *batcher) offer(doc LogDocument) bool {
	select {
	case b.queue <- doc:
		return true
	default:
		return false
	}
}

func (b *batcher) loop(tick time.Duration) {
	defer close(b.stopped)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, b.size)
	emit := func() {
		if len(batch) == 0 {
			return
		}
		b.flush(batch)
		batch = make([]interface{}, 0, b.size)
	}

	for {
		select {
		case doc := <-b.queue:
			batch = append(batch, doc)
			if len(batch) >= b.size {
				emit()
			}
		case <-ticker.C:
			emit()
		case <-b.done:
			for len(b.queue) > 0 {
				batch = append(batch, <-b.queue)
			}
			emit()
			return
		}
	}
}

func (b *batcher) close() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
	<-b.stopped
}

// ─── Multi-handler fan-out ─────────────────────────────────────────────────────

// MultiHandler fans out to multiple slog.Handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: hs}
}
