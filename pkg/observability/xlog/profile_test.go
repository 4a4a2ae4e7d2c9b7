package xlog_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/telelog/pkg/observability/xcomponent"
	"github.com/omeyang/telelog/pkg/observability/xlog"
	"github.com/omeyang/telelog/pkg/observability/xmetrics"
)

// recordingObserver 记录收到的事件
type recordingObserver struct {
	mu        sync.Mutex
	profiles  []xmetrics.Profile
	started   []xcomponent.Node
	completed []xcomponent.Node
}

func (o *recordingObserver) ProfileCompleted(_ context.Context, p xmetrics.Profile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.profiles = append(o.profiles, p)
}

func (o *recordingObserver) ComponentStarted(_ context.Context, n xcomponent.Node) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, n)
}

func (o *recordingObserver) ComponentCompleted(_ context.Context, n xcomponent.Node) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, n)
}

func (o *recordingObserver) profileOps() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ops := make([]string, len(o.profiles))
	for i, p := range o.profiles {
		ops[i] = p.Operation
	}
	return ops
}

func TestProfile_EndEmitsOnce(t *testing.T) {
	logger, mem := newMemLogger(t, nil)

	p := logger.Profile(context.Background(), "db_query")
	assert.Equal(t, "db_query", p.Operation())
	time.Sleep(2 * time.Millisecond)
	d := p.End()
	assert.GreaterOrEqual(t, d, 2*time.Millisecond)
	assert.Equal(t, d, p.End())
	assert.Equal(t, d, p.Elapsed())

	recs := records(t, mem)
	require.Len(t, recs, 1)
	assert.Equal(t, xlog.MsgProfileCompleted, recs[0]["msg"])
	assert.Equal(t, "INFO", recs[0]["level"])
	assert.Equal(t, "db_query", recs[0][xlog.KeyOperation])
	ms, ok := recs[0][xlog.KeyElapsedMS].(float64)
	require.True(t, ok)
	assert.InDelta(t, float64(d)/float64(time.Millisecond), ms, 1e-6)
}

func TestProfile_Deferred(t *testing.T) {
	logger, mem := newMemLogger(t, nil)

	func() {
		defer logger.Profile(context.Background(), "handler").End()
	}()

	assert.Equal(t, 1, mem.Writes())
}

func TestProfile_ElapsedIsNonDecreasing(t *testing.T) {
	logger, mem := newMemLogger(t, nil)
	p := logger.Profile(context.Background(), "op")

	first := p.Elapsed()
	second := p.Elapsed()
	assert.GreaterOrEqual(t, second, first)
	assert.Zero(t, mem.Writes(), "Elapsed does not end the profile")
}

func TestProfile_ConsumeSuppressesRecord(t *testing.T) {
	obs := &recordingObserver{}
	logger, mem := newMemLogger(t, xlog.New().SetObserver(obs))

	p := logger.Profile(context.Background(), "silent")
	d := p.Consume()
	assert.Equal(t, d, p.End())

	assert.Zero(t, mem.Writes())
	assert.Empty(t, obs.profileOps())
}

func TestProfile_DisabledStillForwardsToObserver(t *testing.T) {
	obs := &recordingObserver{}
	logger, mem := newMemLogger(t, xlog.New().SetName("svc").SetProfiling(false).SetObserver(obs))

	logger.Profile(context.Background(), "measured").End()

	assert.Zero(t, mem.Writes())
	require.Equal(t, []string{"measured"}, obs.profileOps())
	assert.Equal(t, "svc", obs.profiles[0].Logger)
}

func TestProfile_ForwardsContextToObserver(t *testing.T) {
	obs := &recordingObserver{}
	logger, _ := newMemLogger(t, xlog.New().SetObserver(obs))
	logger.AddContext("user", "u-7")
	logger.AddContext("request_id", "r-1")

	logger.Profile(context.Background(), "lookup").End()
	logger.ClearContext()
	logger.Profile(context.Background(), "bare").End()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.profiles, 2)
	assert.Equal(t, []xmetrics.Attr{
		xmetrics.String("request_id", "r-1"),
		xmetrics.String("user", "u-7"),
	}, obs.profiles[0].Attrs)
	assert.Empty(t, obs.profiles[1].Attrs)
}

func TestProfile_HonoursLevelFilter(t *testing.T) {
	logger, mem := newMemLogger(t, xlog.New().SetLevel(xlog.LevelWarning))

	logger.Profile(context.Background(), "hidden").End()
	assert.Zero(t, mem.Writes())
}

func TestProfile_NilGuard(t *testing.T) {
	var p *xlog.ProfileGuard
	assert.NotPanics(t, func() {
		assert.Zero(t, p.End())
		assert.Zero(t, p.Consume())
		assert.Zero(t, p.Elapsed())
		assert.Empty(t, p.Operation())
	})
}

func TestProfile_ConcurrentEnd(t *testing.T) {
	logger, mem := newMemLogger(t, nil)
	p := logger.Profile(context.Background(), "race")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.End()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, mem.Writes())
}
