package notify

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(2)
	q.Notify("one", "", time.Second)
	q.Notify("two", "Retry", time.Second)
	q.Notify("three", "", time.Second) // dropped, never blocks

	require.Len(t, q.C(), 2)
	assert.Equal(t, Notification{Message: "one", Duration: time.Second}, <-q.C())
	assert.Equal(t, Notification{Message: "two", Action: "Retry", Duration: time.Second}, <-q.C())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	n.Notify("Fetching exercises failed", "", DefaultDuration)

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "Fetching exercises failed")
}

func TestMulti(t *testing.T) {
	a, b := NewQueue(1), NewQueue(1)
	Multi{a, b, Discard{}}.Notify("hi", "", time.Second)

	assert.Len(t, a.C(), 1)
	assert.Len(t, b.C(), 1)
}
