package xmetrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/omeyang/telelog/pkg/observability/xcomponent"
)

// recordingObserver 记录收到的事件
type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingObserver) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) ComponentStarted(_ context.Context, n xcomponent.Node) {
	r.add("start:" + n.Name)
}

func (r *recordingObserver) ComponentCompleted(_ context.Context, n xcomponent.Node) {
	r.add("end:" + n.Name)
}

func (r *recordingObserver) ProfileCompleted(_ context.Context, p Profile) {
	r.add("profile:" + p.Operation)
}

func TestMulti(t *testing.T) {
	assert.IsType(t, NoopObserver{}, Multi())
	assert.IsType(t, NoopObserver{}, Multi(nil, nil))

	single := &recordingObserver{}
	assert.Same(t, single, Multi(nil, single))

	a, b := &recordingObserver{}, &recordingObserver{}
	m := Multi(a, nil, b)
	ctx := context.Background()
	n := xcomponent.Node{ID: 1, Name: "x"}
	m.ComponentStarted(ctx, n)
	m.ProfileCompleted(ctx, Profile{Operation: "op", Elapsed: time.Millisecond})
	m.ComponentCompleted(ctx, n)

	want := []string{"start:x", "profile:op", "end:x"}
	assert.Equal(t, want, a.events)
	assert.Equal(t, want, b.events)
}

func TestNoopObserver(t *testing.T) {
	var o Observer = NoopObserver{}
	assert.NotPanics(t, func() {
		o.ComponentStarted(context.Background(), xcomponent.Node{})
		o.ComponentCompleted(context.Background(), xcomponent.Node{})
		o.ProfileCompleted(context.Background(), Profile{})
	})
}

func TestAttrsToOTel(t *testing.T) {
	kvs := attrsToOTel([]Attr{
		String("request_id", "r-1"),
		String("empty", ""),
		{Value: "no key"},
	})
	got := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, map[string]string{"request_id": "r-1", "empty": ""}, got)
	assert.Nil(t, attrsToOTel(nil))
}
