package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Cleanup 定期删除过期会话
type Cleanup struct {
	p        purger
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCleanup interval<=0 时按 15 分钟
func NewCleanup(p purger, l *zap.Logger, interval time.Duration) *Cleanup {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Cleanup{p: p, log: l, interval: interval, stopCh: make(chan struct{})}
}

func (w *Cleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session cleanup worker started", zap.Duration("interval", w.interval))
}

func (w *Cleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("session cleanup worker stopped")
}

func (w *Cleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce 单次清理；错误只记录日志
func (w *Cleanup) RunOnce() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := w.p.PurgeExpired(ctx)
	if err != nil {
		w.log.Error("purge expired sessions", zap.Error(err))
		return 0
	}
	if n > 0 {
		w.log.Info("purged expired sessions", zap.Int64("count", n))
	}
	return n
}
