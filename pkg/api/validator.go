package api

import (
	"errors"
	"strings"
)

// MaxStep - максимальное смещение по оси за одну команду MOVE
const MaxStep = 3

// MaxChatLength - ограничение длины сообщения чата
const MaxChatLength = 500

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (p SelectCharacterPayload) Validate() error {
	if p.CharacterID == "" {
		return errors.New("characterId is required")
	}
	return nil
}

func (p MovePayload) Validate() error {
	if p.Dx == 0 && p.Dy == 0 && p.Dz == 0 {
		return errors.New("movement vector cannot be zero")
	}
	if abs(p.Dx) > MaxStep || abs(p.Dy) > MaxStep || abs(p.Dz) > 1 {
		return errors.New("movement step too large")
	}
	switch strings.ToUpper(p.Mode) {
	case "", "WALK", "RUN":
	default:
		return errors.New("mode must be WALK or RUN")
	}
	if p.Speed < 0 {
		return errors.New("speed cannot be negative")
	}
	return nil
}

func (p ChatPayload) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return errors.New("text is required")
	}
	if len(p.Text) > MaxChatLength {
		return errors.New("text is too long")
	}
	return nil
}

func (p EntityPayload) Validate() error {
	if p.TargetID == "" {
		return errors.New("targetId is required")
	}
	return nil
}

func (p InteractPayload) Validate() error {
	if p.Action == "" {
		return errors.New("action is required")
	}
	if p.TargetID == "" && p.Position == nil {
		return errors.New("targetId or position is required")
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
