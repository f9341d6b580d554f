package movement

import (
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
)

// OccupancyChecker - внешний источник занятости клеток (например, состояние мира).
type OccupancyChecker interface {
	IsOccupied(pos domain.Position, except string) bool
}

type RulesConfig struct {
	MaxMovesPerWindow int
	RateWindow        time.Duration
	MaxWalkDistance   float64
	MaxRunDistance    float64
}

// Rules проверяет легальность перемещения в момент исполнения, по порядку:
// границы, лимит частоты, дальность, занятость клетки. Первый отказ прерывает проверку.
type Rules struct {
	cfg       RulesConfig
	history   *History
	occupancy []OccupancyChecker
}

func NewRules(cfg RulesConfig, history *History, occupancy ...OccupancyChecker) *Rules {
	return &Rules{cfg: cfg, history: history, occupancy: occupancy}
}

// Check returns the block reason, or "" when the movement is legal.
func (r *Rules) Check(entityID string, t MovementType, from, to domain.Position, now time.Time) string {
	if !to.InBounds() {
		return ReasonOutOfBounds
	}

	// TELEPORT и KNOCKBACK не ограничены ни частотой, ни дальностью
	if t == Walk || t == Run {
		since := now.Add(-r.cfg.RateWindow)
		if r.cfg.MaxMovesPerWindow > 0 && r.history.CountSince(entityID, since, Walk, Run) >= r.cfg.MaxMovesPerWindow {
			return ReasonRateLimited
		}
		if Distance(from, to) > r.maxDistance(t) {
			return ReasonTooFar
		}
	}

	for _, occ := range r.occupancy {
		if occ.IsOccupied(to, entityID) {
			return ReasonOccupied
		}
	}
	return ""
}

func (r *Rules) maxDistance(t MovementType) float64 {
	if t == Run {
		return r.cfg.MaxRunDistance
	}
	return r.cfg.MaxWalkDistance
}
