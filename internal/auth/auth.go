// Package auth - контракт проверки токена аккаунта. Учетные записи живут
// во внешнем модуле; здесь только статический валидатор из конфигурации.
package auth

import (
	"context"
	"errors"
	"sort"
)

// ErrInvalidToken - токен не принадлежит ни одному аккаунту
var ErrInvalidToken = errors.New("invalid token")

// Identity - аутентифицированный аккаунт и его персонажи.
type Identity struct {
	ID         string   `json:"id" yaml:"id"`
	Characters []string `json:"characters" yaml:"characters"`
}

// Owns reports whether the character belongs to this account.
func (i Identity) Owns(characterID string) bool {
	for _, c := range i.Characters {
		if c == characterID {
			return true
		}
	}
	return false
}

// TokenValidator возвращает Identity или ErrInvalidToken.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (Identity, error)
}

// StaticValidator - токены из конфигурации.
type StaticValidator struct {
	tokens map[string]Identity
}

func NewStaticValidator(tokens map[string]Identity) *StaticValidator {
	cp := make(map[string]Identity, len(tokens))
	for token, id := range tokens {
		id.Characters = append([]string(nil), id.Characters...)
		cp[token] = id
	}
	return &StaticValidator{tokens: cp}
}

func (v *StaticValidator) ValidateToken(_ context.Context, token string) (Identity, error) {
	id, ok := v.tokens[token]
	if !ok || token == "" {
		return Identity{}, ErrInvalidToken
	}
	id.Characters = append([]string(nil), id.Characters...)
	return id, nil
}

// Accounts - id всех известных аккаунтов (для логов при старте).
func (v *StaticValidator) Accounts() []string {
	ids := make([]string, 0, len(v.tokens))
	for _, id := range v.tokens {
		ids = append(ids, id.ID)
	}
	sort.Strings(ids)
	return ids
}
