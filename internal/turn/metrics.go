package turn

import (
	"sync/atomic"
	"time"
)

// Metrics - счетчики процессора (для мониторинга и отладки)
type Metrics struct {
	BatchesStarted  int64 // начатые проходы
	BatchesFinished int64 // завершенные проходы
	TicksSkipped    int64 // тики, пропущенные из-за незавершенного прохода
	EventsCompleted int64
	EventsFailed    int64
	TotalTickNs     int64 // суммарное время проходов (нс)
}

func (m *Metrics) incStarted()   { atomic.AddInt64(&m.BatchesStarted, 1) }
func (m *Metrics) incSkipped()   { atomic.AddInt64(&m.TicksSkipped, 1) }
func (m *Metrics) incCompleted() { atomic.AddInt64(&m.EventsCompleted, 1) }
func (m *Metrics) incFailed()    { atomic.AddInt64(&m.EventsFailed, 1) }

func (m *Metrics) addFinished(d time.Duration) {
	atomic.AddInt64(&m.BatchesFinished, 1)
	atomic.AddInt64(&m.TotalTickNs, int64(d))
}

// Stats is a read-only copy of Metrics.
type Stats struct {
	BatchesStarted  int64   `json:"batches_started"`
	BatchesFinished int64   `json:"batches_finished"`
	TicksSkipped    int64   `json:"ticks_skipped"`
	EventsCompleted int64   `json:"events_completed"`
	EventsFailed    int64   `json:"events_failed"`
	AvgTickMs       float64 `json:"avg_tick_ms"`
}

// Snapshot возвращает копию счетчиков, удобную для HTTP вывода
func (m *Metrics) Snapshot() Stats {
	finished := atomic.LoadInt64(&m.BatchesFinished)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if finished > 0 {
		avgMs = float64(total) / float64(finished) / 1e6
	}
	return Stats{
		BatchesStarted:  atomic.LoadInt64(&m.BatchesStarted),
		BatchesFinished: finished,
		TicksSkipped:    atomic.LoadInt64(&m.TicksSkipped),
		EventsCompleted: atomic.LoadInt64(&m.EventsCompleted),
		EventsFailed:    atomic.LoadInt64(&m.EventsFailed),
		AvgTickMs:       avgMs,
	}
}
