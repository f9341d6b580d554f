package actions

import (
	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/engine/handlers"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/api"
)

const (
	// WeaponRange - ближний бой, соседняя клетка
	WeaponRange = 1.5
	// BaseDamage пока фиксирован, характеристик у персонажей нет
	BaseDamage = 10
	// CombatBroadcastRadius - кто видит бой
	CombatBroadcastRadius = 10
)

func HandleAttack(ctx handlers.Context, p api.EntityPayload) (handlers.Result, error) {
	if p.TargetID == ctx.Actor.ID {
		return handlers.Result{}, domain.Invalid("targetId", "cannot attack yourself")
	}

	// 1. Поиск цели
	at, err := locate(ctx, p.TargetID)
	if err != nil {
		return handlers.Result{}, err
	}

	// 2. Проверка дистанции
	if at.Z != ctx.Position.Z || ctx.Position.DistanceTo(at) > WeaponRange {
		return handlers.Result{}, domain.Invalid("targetId", "target is too far")
	}

	vis, err := domain.Area(at, CombatBroadcastRadius)
	if err != nil {
		return handlers.Result{}, err
	}

	// 3. Само действие (анимация у клиентов), затем урон, который применит мир
	action, err := ctx.Service.PublishEvent(events.CombatAction, SourceModule, events.CombatActionPayload{
		AttackerID: ctx.Actor.ID,
		TargetID:   p.TargetID,
		Action:     "melee",
	}, vis, PriorityCombat)
	if err != nil {
		return handlers.Result{}, err
	}
	if _, err := ctx.Service.PublishEvent(events.DamageDealt, SourceModule, events.DamagePayload{
		TargetID:   p.TargetID,
		AttackerID: ctx.Actor.ID,
		Amount:     BaseDamage,
		DamageType: "physical",
	}, vis, PriorityCombat); err != nil {
		return handlers.Result{}, err
	}

	return handlers.Accepted(action), nil
}
