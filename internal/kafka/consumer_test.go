package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/retry"
	"github.com/RoGogDBD/closet/internal/service"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	done      chan struct{}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		m := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	close(r.done)
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

type fakeWriter struct {
	messages []kafka.Message
	failures int
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.failures > 0 {
		w.failures--
		return io.ErrUnexpectedEOF
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type creatorFunc func(ctx context.Context, in service.ItemInput) (*models.Item, error)

func (f creatorFunc) CreateItem(ctx context.Context, in service.ItemInput) (*models.Item, error) {
	return f(ctx, in)
}

func testPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 2, ShouldRetry: transient}
}

func intake(offset int64, body string) kafka.Message {
	return kafka.Message{Topic: "items.intake", Partition: 0, Offset: offset, Key: []byte("k"), Value: []byte(body)}
}

func validBody() string {
	return `{"categoryId":"` + uuid.NewString() + `","brand":"Levi's","size":"32","sku":"J1","price":12}`
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestHandle(t *testing.T) {
	store := errors.New("connection reset")
	notFound := &service.Error{Kind: service.ErrNotFound, Message: "category not found"}

	tests := []struct {
		name        string
		body        string
		results     []error
		wantCalls   int
		wantDLQ     bool
		wantDLQText string
	}{
		{name: "created", body: validBody(), results: []error{nil}, wantCalls: 1},
		{name: "transient then created", body: validBody(), results: []error{store, store, nil}, wantCalls: 3},
		{name: "retries exhausted", body: validBody(), results: []error{store, store, store}, wantCalls: 3, wantDLQ: true, wantDLQText: "connection reset"},
		{name: "permanent error not retried", body: validBody(), results: []error{notFound}, wantCalls: 1, wantDLQ: true, wantDLQText: "category not found"},
		{name: "malformed json", body: `{"brand":`, wantDLQ: true},
		{name: "validation", body: `{"categoryId":"` + uuid.NewString() + `","brand":"x","size":"s","sku":"k","price":-3}`, wantDLQ: true, wantDLQText: "price must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			items := creatorFunc(func(ctx context.Context, in service.ItemInput) (*models.Item, error) {
				err := tt.results[calls]
				calls++
				if err != nil {
					return nil, err
				}
				return &models.Item{ID: uuid.New(), CategoryID: in.CategoryID, Order: 1}, nil
			})
			dlq := &fakeWriter{}
			c := newConsumer(&fakeReader{}, dlq, items, testPolicy(), nil)

			m := intake(7, tt.body)
			require.NoError(t, c.handle(context.Background(), m))
			assert.Equal(t, tt.wantCalls, calls)

			if !tt.wantDLQ {
				assert.Empty(t, dlq.messages)
				return
			}
			require.Len(t, dlq.messages, 1)
			dead := dlq.messages[0]
			assert.Equal(t, m.Value, dead.Value)
			assert.Equal(t, m.Key, dead.Key)
			assert.Equal(t, "items.intake", header(dead, HeaderTopic))
			assert.Equal(t, "7", header(dead, HeaderOffset))
			if tt.wantDLQText != "" {
				assert.Contains(t, header(dead, HeaderError), tt.wantDLQText)
			}
		})
	}
}

func TestHandleWithoutDLQ(t *testing.T) {
	c := newConsumer(&fakeReader{}, nil, creatorFunc(func(ctx context.Context, in service.ItemInput) (*models.Item, error) {
		t.Fatal("must not be called")
		return nil, nil
	}), testPolicy(), nil)

	assert.NoError(t, c.handle(context.Background(), intake(1, "not json")))
}

func TestHandleDLQWriteFailure(t *testing.T) {
	dlq := &fakeWriter{failures: 1}
	c := newConsumer(&fakeReader{}, dlq, nil, testPolicy(), nil)

	assert.Error(t, c.handle(context.Background(), intake(1, "not json")))
	assert.NoError(t, c.handle(context.Background(), intake(1, "not json")))
	assert.Len(t, dlq.messages, 1)
}

func TestRunCommitsEveryHandledMessage(t *testing.T) {
	reader := &fakeReader{
		messages: []kafka.Message{intake(1, validBody()), intake(2, "garbage"), intake(3, validBody())},
		done:     make(chan struct{}),
	}
	dlq := &fakeWriter{}
	created := 0
	c := newConsumer(reader, dlq, creatorFunc(func(ctx context.Context, in service.ItemInput) (*models.Item, error) {
		created++
		return &models.Item{ID: uuid.New(), CategoryID: in.CategoryID}, nil
	}), testPolicy(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	select {
	case <-reader.done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain messages")
	}
	cancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	assert.Equal(t, 2, created)
	assert.Len(t, dlq.messages, 1)

	require.NoError(t, c.Close())
	assert.True(t, dlq.closed)
}
