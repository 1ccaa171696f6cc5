package viewer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	errs   []error
	closed bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		f.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(f.msgs) > 0 {
		msg := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestConsume_ForwardsJSONRecords(t *testing.T) {
	hub := NewHub()
	reader := &fakeReader{
		errs: []error{errors.New("leader not available")},
		msgs: []kafka.Message{
			{Topic: "listing.sheets", Key: []byte("1"), Value: []byte(`{"eventType":"listing.sheet.created"}`), Time: time.UnixMilli(1000)},
			{Topic: "listing.sheets", Key: []byte("1"), Value: []byte(`not json`)},
			{Topic: "listing.transcripts", Key: []byte("2"), Value: []byte(`{"eventType":"listing.voice.failed"}`)},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Consume(ctx, hub, reader)
		close(done)
	}()

	var got []Event
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-hub.broadcast:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out, got %d events", len(got))
		}
	}
	cancel()
	<-done

	require.Len(t, got, 2)
	assert.Equal(t, "listing.sheets", got[0].Topic)
	assert.Equal(t, "1", got[0].Key)
	assert.Equal(t, int64(1000), got[0].Timestamp)
	assert.JSONEq(t, `{"eventType":"listing.sheet.created"}`, string(got[0].Payload))
	assert.Equal(t, "listing.transcripts", got[1].Topic)
	assert.True(t, reader.closed)
}
