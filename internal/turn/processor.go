package turn

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/pkg/logger"
	"github.com/sirupsen/logrus"
)

// DefaultInterval - эталонный интервал тика.
const DefaultInterval = 100 * time.Millisecond

// HandlerFunc выполняет одно событие. Ошибка или паника переводят событие в FAILED.
type HandlerFunc[E any, R any] func(ctx context.Context, ev E) (R, error)

// ProcessorConfig holds the dependencies of a Processor.
type ProcessorConfig[E Task[R], R any] struct {
	Name     string
	Interval time.Duration
	Queue    *Queue[E]
	Handle   HandlerFunc[E, R]

	// Record durably reflects each status transition before the next event runs.
	Record func(E) error
	// OnFinish is called after the final transition has been recorded.
	OnFinish func(ev E, err error)
	Now      func() time.Time
}

// Processor забирает ожидающие события из очереди по таймеру и выполняет их.
// Одновременно выполняется не более одного прохода (batch) на экземпляр.
type Processor[E Task[R], R any] struct {
	cfg ProcessorConfig[E, R]
	log *logrus.Entry

	inFlight atomic.Bool
	metrics  Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	ticks  sync.WaitGroup
	loop   chan struct{}
}

func NewProcessor[E Task[R], R any](cfg ProcessorConfig[E, R]) *Processor[E, R] {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Record == nil {
		cfg.Record = func(E) error { return nil }
	}
	return &Processor[E, R]{
		cfg: cfg,
		log: logger.Component("turn_processor").WithField("processor", cfg.Name),
	}
}

// Start запускает таймер. Повторный вызов ничего не делает.
func (p *Processor[E, R]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.loop = make(chan struct{})
	go p.run(ctx, p.loop)

	p.log.WithField("interval", p.cfg.Interval).Info("Processor started")
}

// Stop останавливает таймер и ждет завершения текущего прохода. Повторный вызов ничего не делает.
func (p *Processor[E, R]) Stop() {
	p.mu.Lock()
	cancel, loop := p.cancel, p.loop
	p.cancel, p.loop = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-loop
	p.ticks.Wait()
	p.log.Info("Processor stopped")
}

func (p *Processor[E, R]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Processor[E, R]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Каждый тик в своей горутине: если прошлый проход еще идет, Tick сам его пропустит.
			p.ticks.Add(1)
			go func() {
				defer p.ticks.Done()
				p.Tick(ctx)
			}()
		}
	}
}

// Tick runs one batch over a snapshot of the pending events.
// Returns false when another batch is still in flight and this tick was skipped.
func (p *Processor[E, R]) Tick(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.metrics.incSkipped()
		return false
	}
	started := time.Now()
	p.metrics.incStarted()
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("panic", r).Error("Batch aborted")
		}
		p.metrics.addFinished(time.Since(started))
		p.inFlight.Store(false)
	}()

	for _, ev := range p.cfg.Queue.Pending() {
		if ctx.Err() != nil {
			return true
		}
		p.process(ctx, ev)
	}
	return true
}

func (p *Processor[E, R]) process(ctx context.Context, ev E) {
	// Событие могли отменить, пока шел проход
	if !p.cfg.Queue.Begin(ev.Key(), p.cfg.Now()) {
		return
	}
	p.record(ev)

	result, err := p.invoke(ctx, ev)
	ev.Finish(result, err, p.cfg.Now())
	p.record(ev)

	if err != nil {
		p.metrics.incFailed()
		p.log.WithError(err).WithField("event_id", ev.Key()).Warn("Event failed")
	} else {
		p.metrics.incCompleted()
	}
	if p.cfg.OnFinish != nil {
		p.cfg.OnFinish(ev, err)
	}
}

func (p *Processor[E, R]) invoke(ctx context.Context, ev E) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			p.log.WithField("event_id", ev.Key()).Debugf("handler panic stack: %s", debug.Stack())
		}
	}()
	return p.cfg.Handle(ctx, ev)
}

func (p *Processor[E, R]) record(ev E) {
	if err := p.cfg.Record(ev); err != nil {
		p.log.WithError(err).WithField("event_id", ev.Key()).Error("Failed to record event transition")
	}
}

func (p *Processor[E, R]) Stats() Stats {
	return p.metrics.Snapshot()
}
