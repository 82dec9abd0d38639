package worker

import (
    "context"
    "sync"
    "time"

    "go.uber.org/zap"
)

// Job is one unit of periodic maintenance, e.g. evicting idle sessions.
type Job func(ctx context.Context) error

type Pool struct {
    name     string
    job      Job
    logger   *zap.Logger
    count    int
    interval time.Duration
    wg       sync.WaitGroup
    stop     chan struct{}
    once     sync.Once
}

func NewPool(name string, job Job, logger *zap.Logger, count int, interval time.Duration) *Pool {
    if logger == nil {
        logger = zap.NewNop()
    }
    if count <= 0 {
        count = 1
    }
    if interval <= 0 {
        interval = time.Minute
    }
    return &Pool{
        name:     name,
        job:      job,
        logger:   logger.With(zap.String("pool", name)),
        count:    count,
        interval: interval,
        stop:     make(chan struct{}),
    }
}

func (p *Pool) Start(ctx context.Context) {
    p.logger.Info("Starting worker pool", zap.Int("workers", p.count), zap.Duration("interval", p.interval))

    for i := 0; i < p.count; i++ {
        p.wg.Add(1)
        go p.worker(ctx, i)
    }
}

// Stop is safe to call more than once.
func (p *Pool) Stop() {
    p.once.Do(func() {
        p.logger.Info("Stopping worker pool...")
        close(p.stop)
        p.wg.Wait()
        p.logger.Info("Worker pool stopped")
    })
}

func (p *Pool) worker(ctx context.Context, id int) {
    defer p.wg.Done()

    ticker := time.NewTicker(p.interval)
    defer ticker.Stop()

    for {
        select {
        case <-p.stop:
            return
        case <-ctx.Done():
            return
        case <-ticker.C:
            if err := p.job(ctx); err != nil {
                p.logger.Error("worker error", zap.Int("worker", id), zap.Error(err))
            }
        }
    }
}
