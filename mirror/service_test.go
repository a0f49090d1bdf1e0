package mirror

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kasuganosora/mathquest/config"
	"github.com/kasuganosora/mathquest/model"
	"github.com/kasuganosora/mathquest/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/datatypes"
)

type recordingPublisher struct {
	mu     sync.Mutex
	routes []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes = append(p.routes, routingKey)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) Routes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.routes...)
}

func snapshot(id string, points int, at time.Time) *model.ProfileSnapshot {
	return &model.ProfileSnapshot{
		ProfileID:       id,
		Name:            "Learner " + id,
		Focus:           "college",
		UnlockedModules: datatypes.JSON(`["number-sense"]`),
		Badges:          datatypes.JSON(`[]`),
		TotalPoints:     points,
		UpdatedAt:       at,
	}
}

func TestService_StopFlushesAndUpserts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pub := &recordingPublisher{}
	svc := New(db, pub, config.SyncConfig{FlushInterval: time.Hour, BatchSize: 100, QueueSize: 16}, zap.NewNop())

	t0 := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	svc.PushSnapshot(snapshot("p-1", 10, t0))
	svc.PushSnapshot(snapshot("p-1", 50, t0.Add(time.Minute)))
	svc.PushDailyRun(&model.DailyRun{ProfileID: "p-1", Date: "2026-10-18", Completed: datatypes.JSON(`["speed-sprint"]`), Points: 40, UpdatedAt: t0})
	svc.Stop(context.Background())

	got, err := svc.Fetch(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.TotalPoints)

	var runs []model.DailyRun
	require.NoError(t, db.Find(&runs).Error)
	require.Len(t, runs, 1)
	assert.Equal(t, 40, runs[0].Points)

	assert.Equal(t, []string{RouteSnapshot, RouteDailyRun}, pub.Routes())
}

func TestService_LaterBatchOverwrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil, config.SyncConfig{FlushInterval: 10 * time.Millisecond, BatchSize: 1, QueueSize: 16}, zap.NewNop())
	defer svc.Stop(context.Background())

	t0 := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	svc.PushSnapshot(snapshot("p-2", 10, t0))
	require.Eventually(t, func() bool {
		s, err := svc.Fetch(context.Background(), "p-2")
		return err == nil && s.TotalPoints == 10
	}, 2*time.Second, 10*time.Millisecond)

	svc.PushSnapshot(snapshot("p-2", 90, t0.Add(time.Hour)))
	require.Eventually(t, func() bool {
		s, err := svc.Fetch(context.Background(), "p-2")
		return err == nil && s.TotalPoints == 90
	}, 2*time.Second, 10*time.Millisecond)
}

func TestService_FetchMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil, config.SyncConfig{}, zap.NewNop())
	defer svc.Stop(context.Background())

	_, err := svc.Fetch(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_PushAfterStopIsDropped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	core, logs := observer.New(zap.WarnLevel)
	svc := New(db, nil, config.SyncConfig{}, zap.New(core))
	svc.Stop(context.Background())
	svc.Stop(context.Background())

	svc.PushSnapshot(snapshot("p-3", 1, time.Now()))
	assert.Equal(t, 1, logs.FilterMessage("mirror stopped, dropping entry").Len())
}

func TestService_NilIsNoop(t *testing.T) {
	var svc *Service
	assert.NotPanics(t, func() {
		svc.PushSnapshot(snapshot("p", 1, time.Now()))
		svc.PushDailyRun(&model.DailyRun{ProfileID: "p"})
		svc.Stop(context.Background())
	})
}

func TestCollapse_KeepsNewestPerKey(t *testing.T) {
	t0 := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	snaps, runs := collapse([]entry{
		{snapshot: snapshot("a", 1, t0.Add(time.Minute))},
		{snapshot: snapshot("b", 2, t0)},
		{snapshot: snapshot("a", 3, t0)},
		{run: &model.DailyRun{ProfileID: "a", Date: "2026-10-18", Points: 5, UpdatedAt: t0}},
		{run: &model.DailyRun{ProfileID: "a", Date: "2026-10-18", Points: 9, UpdatedAt: t0.Add(time.Second)}},
	})
	require.Len(t, snaps, 2)
	assert.Equal(t, 1, snaps[0].TotalPoints)
	assert.Equal(t, "b", snaps[1].ProfileID)
	require.Len(t, runs, 1)
	assert.Equal(t, 9, runs[0].Points)
}

func TestAMQPPublisher_DisabledWithoutURL(t *testing.T) {
	p, err := NewAMQPPublisher("", "mathquest.sync", zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), RouteSnapshot, map[string]int{"x": 1}))
	p.Close()
}
