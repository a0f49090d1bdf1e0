// Package mirror copies committed progression state to SQL and, optionally,
// to a message broker. Writes are queued and flushed in batches off the
// request path.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kasuganosora/mathquest/config"
	"github.com/kasuganosora/mathquest/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("mirror: snapshot not found")

type entry struct {
	snapshot *model.ProfileSnapshot
	run      *model.DailyRun
}

// Service upserts snapshots asynchronously in batches.
type Service struct {
	db        *gorm.DB
	pub       Publisher
	ch        chan entry
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
}

// New creates a mirror Service and starts its background worker. pub may be
// nil.
func New(db *gorm.DB, pub Publisher, cfg config.SyncConfig, logger *zap.Logger) *Service {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	svc := &Service{
		db:        db,
		pub:       pub,
		ch:        make(chan entry, cfg.QueueSize),
		stopCh:    make(chan struct{}),
		interval:  cfg.FlushInterval,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// PushSnapshot enqueues a profile snapshot. A full queue drops it.
func (svc *Service) PushSnapshot(snap *model.ProfileSnapshot) {
	if svc == nil || snap == nil {
		return
	}
	svc.enqueue(entry{snapshot: snap}, snap.ProfileID)
}

// PushDailyRun enqueues a daily run row. A full queue drops it.
func (svc *Service) PushDailyRun(run *model.DailyRun) {
	if svc == nil || run == nil {
		return
	}
	svc.enqueue(entry{run: run}, run.ProfileID)
}

func (svc *Service) enqueue(e entry, profileID string) {
	select {
	case <-svc.stopCh:
		svc.logger.Warn("mirror stopped, dropping entry", zap.String("profile_id", profileID))
		return
	default:
	}
	select {
	case svc.ch <- e:
	default:
		svc.logger.Warn("mirror queue full, dropping entry",
			zap.String("profile_id", profileID))
	}
}

// Fetch reads the mirrored snapshot of profileID.
func (svc *Service) Fetch(ctx context.Context, profileID string) (*model.ProfileSnapshot, error) {
	var snap model.ProfileSnapshot
	err := svc.db.WithContext(ctx).First(&snap, "profile_id = ?", profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mirror: fetch %s: %w", profileID, err)
	}
	return &snap, nil
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	if svc == nil {
		return
	}
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	batch := make([]entry, 0, svc.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		svc.write(batch)
		batch = batch[:0]
	}

	for {
		select {
		case e := <-svc.ch:
			batch = append(batch, e)
			if len(batch) >= svc.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case e := <-svc.ch:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (svc *Service) write(batch []entry) {
	snaps, runs := collapse(batch)
	ctx := context.Background()

	if len(snaps) > 0 {
		err := svc.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile_id"}},
			UpdateAll: true,
		}).Create(&snaps).Error
		if err != nil {
			svc.logger.Error("mirror snapshot batch write failed", zap.Int("rows", len(snaps)), zap.Error(err))
		} else {
			publishAll(svc, ctx, RouteSnapshot, snaps)
		}
	}
	if len(runs) > 0 {
		err := svc.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed", "points", "updated_at"}),
		}).Create(&runs).Error
		if err != nil {
			svc.logger.Error("mirror daily run batch write failed", zap.Int("rows", len(runs)), zap.Error(err))
		} else {
			publishAll(svc, ctx, RouteDailyRun, runs)
		}
	}
}

func publishAll[T any](svc *Service, ctx context.Context, key string, rows []T) {
	if svc.pub == nil {
		return
	}
	for _, row := range rows {
		if err := svc.pub.Publish(ctx, key, row); err != nil {
			svc.logger.Warn("mirror publish failed", zap.String("route", key), zap.Error(err))
		}
	}
}

// collapse keeps the newest row per profile (and per profile/day for runs),
// preserving first-seen order.
func collapse(batch []entry) ([]*model.ProfileSnapshot, []*model.DailyRun) {
	snapIdx := make(map[string]int)
	runIdx := make(map[string]int)
	var snaps []*model.ProfileSnapshot
	var runs []*model.DailyRun
	for _, e := range batch {
		if s := e.snapshot; s != nil {
			if i, ok := snapIdx[s.ProfileID]; ok {
				if !s.UpdatedAt.Before(snaps[i].UpdatedAt) {
					snaps[i] = s
				}
				continue
			}
			snapIdx[s.ProfileID] = len(snaps)
			snaps = append(snaps, s)
		}
		if r := e.run; r != nil {
			key := r.ProfileID + "|" + r.Date
			if i, ok := runIdx[key]; ok {
				if !r.UpdatedAt.Before(runs[i].UpdatedAt) {
					runs[i] = r
				}
				continue
			}
			runIdx[key] = len(runs)
			runs = append(runs, r)
		}
	}
	return snaps, runs
}
