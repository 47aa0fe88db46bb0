package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_v1_202610/internal/service"
)

// ==================== 测试替身 ====================

type fakeRefresher struct {
	mu         sync.Mutex
	stale      bool
	staleErr   error
	refreshErr error
	refreshes  int
}

func (f *fakeRefresher) RatesStale(_ context.Context, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stale, f.staleErr
}

func (f *fakeRefresher) RefreshRates(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return 0, f.refreshErr
	}
	f.refreshes++
	f.stale = false
	return 3, nil
}

type fakeMerger struct {
	started chan struct{}
	release chan struct{}
	calls   int
}

func (f *fakeMerger) AutoMergeVariants(_ context.Context) (*service.AutoMergeReport, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return &service.AutoMergeReport{Candidates: 2, Writes: 4}, nil
}

// ==================== RateRefreshTask 测试 ====================

func TestRateRefreshTask_RunOnce(t *testing.T) {
	tests := []struct {
		name          string
		refresher     *fakeRefresher
		wantRefreshed bool
		wantErr       bool
		wantCalls     int
	}{
		{"未过期不刷新", &fakeRefresher{stale: false}, false, false, 0},
		{"过期刷新", &fakeRefresher{stale: true}, true, false, 1},
		{"刷新失败", &fakeRefresher{stale: true, refreshErr: errors.New("source down")}, false, true, 0},
		{"读取设置失败", &fakeRefresher{staleErr: errors.New("db down")}, false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewRateRefreshTask(tt.refresher, "0 0 * * * *", nil)
			refreshed, err := task.RunOnce(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantRefreshed, refreshed)
			assert.Equal(t, tt.wantCalls, tt.refresher.refreshes)
		})
	}
}

func TestRateRefreshTask_StartRunsFirstCheck(t *testing.T) {
	refresher := &fakeRefresher{stale: true}
	task := NewRateRefreshTask(refresher, "0 0 * * * *", nil)
	require.NoError(t, task.Start())
	defer task.Stop()

	assert.Eventually(t, func() bool {
		refresher.mu.Lock()
		defer refresher.mu.Unlock()
		return refresher.refreshes == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRateRefreshTask_InvalidCron(t *testing.T) {
	task := NewRateRefreshTask(&fakeRefresher{}, "not a cron", nil)
	assert.Error(t, task.Start())
}

// ==================== AutoMergeTask 测试 ====================

func TestAutoMergeTask_RunOnce(t *testing.T) {
	merger := &fakeMerger{}
	task := NewAutoMergeTask(merger, "0 0 3 * * *", nil)

	report, err := task.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, merger.calls)
}

func TestAutoMergeTask_Busy(t *testing.T) {
	merger := &fakeMerger{started: make(chan struct{}), release: make(chan struct{})}
	task := NewAutoMergeTask(merger, "0 0 3 * * *", nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = task.RunOnce(context.Background())
	}()

	<-merger.started
	_, err := task.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrTaskBusy)

	close(merger.release)
	<-done
}

// ==================== TaskManager 测试 ====================

func TestTaskManager_Status(t *testing.T) {
	tm := NewTaskManager(&TaskManagerDeps{Rates: &fakeRefresher{}, Merger: &fakeMerger{}}, &TaskManagerConfig{
		RateRefreshCron: "0 0 * * * *",
	}, nil)

	assert.Equal(t, map[string]bool{"rates": true, "automerge": false, "cleanup": false}, tm.Status())

	_, err := tm.TriggerAutoMerge(context.Background())
	assert.ErrorIs(t, err, ErrTaskDisabled)

	refreshed, err := tm.TriggerRateRefresh(context.Background())
	assert.NoError(t, err)
	assert.False(t, refreshed)
}

func TestTaskManager_NilDeps(t *testing.T) {
	tm := NewTaskManager(&TaskManagerDeps{}, nil, nil)
	assert.Equal(t, map[string]bool{"rates": false, "automerge": false, "cleanup": false}, tm.Status())
	assert.NoError(t, tm.Start())
	tm.Stop()

	_, err := tm.TriggerRateRefresh(context.Background())
	assert.ErrorIs(t, err, ErrTaskDisabled)
}

// ==================== LogCleanupTask 测试 ====================

type fakePurger struct {
	mu     sync.Mutex
	cutoff []time.Time
	err    error
}

func (f *fakePurger) PurgeBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoff = append(f.cutoff, before)
	return 5, f.err
}

func TestLogCleanupTask_RunOnce(t *testing.T) {
	purger := &fakePurger{}
	task := NewLogCleanupTask(purger, 30*24*time.Hour, nil)
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	task.now = func() time.Time { return now }

	assert.Equal(t, int64(5), task.RunOnce())
	require.Len(t, purger.cutoff, 1)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), purger.cutoff[0])

	purger.err = errors.New("db down")
	assert.Equal(t, int64(0), task.RunOnce())
}

func TestLogCleanupTask_StartStop(t *testing.T) {
	purger := &fakePurger{}
	task := NewLogCleanupTask(purger, time.Hour, nil, WithCleanupInterval(time.Hour))
	task.Start()
	task.Start() // 重复启动无效

	assert.Eventually(t, func() bool {
		purger.mu.Lock()
		defer purger.mu.Unlock()
		return len(purger.cutoff) == 1
	}, time.Second, 10*time.Millisecond)

	task.Stop()
	task.Stop()
}

func TestTaskManager_WithCleanup(t *testing.T) {
	tm := NewTaskManager(&TaskManagerDeps{Logs: &fakePurger{}}, DefaultConfig(), nil)
	assert.Equal(t, map[string]bool{"rates": false, "automerge": false, "cleanup": true}, tm.Status())
}
