package handlers

import (
	"encoding/json"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/api"
)

// TypedHandlerFunc - это "чистый" хендлер, который работает с готовой структурой T
type TypedHandlerFunc[T any] func(ctx Context, payload T) (Result, error)

// WithPayload берет "чистый" хендлер и превращает его в стандартный HandlerFunc.
// Она берет на себя Unmarshal и Validate.
func WithPayload[T any](handler TypedHandlerFunc[T]) HandlerFunc {
	return func(ctx Context, raw json.RawMessage) (Result, error) {
		var payload T

		// 1. Распаковка JSON. Пустой payload - нулевое значение T, дальше решит валидатор
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return Result{}, domain.Invalid("payload", err.Error())
			}
		}

		// 2. Автоматическая валидация
		// Проверяем, реализует ли структура T интерфейс Validator
		if v, ok := any(payload).(api.Validator); ok {
			if err := v.Validate(); err != nil {
				return Result{}, domain.Invalid("payload", err.Error())
			}
		}

		// 3. Вызов чистой логики
		return handler(ctx, payload)
	}
}
