package api

import (
	"encoding/json"
)

// --- СЕРВЕР -> КЛИЕНТ ---

// Типы сообщений сервера
const (
	MsgWelcome           = "WELCOME"
	MsgLoginOK           = "LOGIN_OK"
	MsgCharacterSelected = "CHARACTER_SELECTED"
	MsgActionAccepted    = "ACTION_ACCEPTED"
	MsgEvent             = "EVENT"
	MsgError             = "ERROR"
)

// ServerResponse это корневой объект, который сервер отправляет клиенту.
type ServerResponse struct {
	// Type тип сообщения (WELCOME, EVENT, ERROR, ...).
	Type string `json:"type"`

	// RequestID повторяет requestId команды, на которую отвечает сервер.
	RequestID string `json:"requestId,omitempty"`

	// ConnectionID выдается в WELCOME.
	ConnectionID string `json:"connectionId,omitempty"`

	// Event заполнено для Type == EVENT.
	Event *EventView `json:"event,omitempty"`

	// Data произвольный ответ на команду (identity, принятое событие и т.п.).
	Data any `json:"data,omitempty"`

	Error *ErrorView `json:"error,omitempty"`

	// Timestamp время отправки, Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// ProtocolVersion меняется при несовместимых изменениях формата сообщений.
const ProtocolVersion = 1

// WelcomeData - Data для WELCOME.
type WelcomeData struct {
	Protocol       int    `json:"protocol"`
	ServerBuild    int32  `json:"serverBuild"` // -1: сборка без даты
	BuildDate      string `json:"buildDate,omitempty"`
	TickIntervalMs int64  `json:"tickIntervalMs"`
}

// EventView это DTO игрового события для клиента.
type EventView struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	SourceModule string          `json:"sourceModule"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Priority     int             `json:"priority"`
	CreatedAt    int64           `json:"createdAt"` // Unix milliseconds
}

// ActionResult - Data для ACTION_ACCEPTED: принятое событие и текст для игрока.
type ActionResult struct {
	Message string `json:"message,omitempty"`
	Event   any    `json:"event,omitempty"`
}

// Коды ошибок в ErrorView
const (
	CodeValidation   = "VALIDATION"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL"
)

// ErrorView описывает отказ.
type ErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// Действия клиента
const (
	ActionLogin           = "LOGIN"
	ActionSelectCharacter = "SELECT_CHARACTER"
	ActionMove            = "MOVE"
	ActionStop            = "STOP"
	ActionChat            = "CHAT"
	ActionInteract        = "INTERACT"
	ActionAttack          = "ATTACK"
	ActionTeleport        = "TELEPORT"
)

// ClientCommand это корневой объект для всех сообщений от клиента к серверу.
type ClientCommand struct {
	// RequestID опциональный идентификатор запроса, возвращается в ответе.
	RequestID string `json:"requestId,omitempty"`

	// Token токен аккаунта. Обязателен только для "LOGIN".
	Token string `json:"token,omitempty"`

	// Action название действия, которое нужно выполнить.
	Action string `json:"action"`

	// Payload JSON-объект с данными для действия. Его структура зависит от Action.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- Payloads ---

// SelectCharacterPayload выбор персонажа после LOGIN.
type SelectCharacterPayload struct {
	CharacterID string `json:"characterId"`
}

// MovePayload шаг относительно текущей позиции (MOVE).
type MovePayload struct {
	Dx    int     `json:"dx"`
	Dy    int     `json:"dy"`
	Dz    int     `json:"dz,omitempty"`
	Mode  string  `json:"mode,omitempty"` // WALK (по умолчанию) или RUN
	Speed float64 `json:"speed,omitempty"`
}

// StopPayload отмена ожидающих перемещений (STOP).
type StopPayload struct {
	Reason string `json:"reason,omitempty"`
}

// ChatPayload сообщение в чат (CHAT). Без TargetID сообщение слышно вокруг говорящего.
type ChatPayload struct {
	Text     string `json:"text"`
	Channel  string `json:"channel,omitempty"`
	TargetID string `json:"targetId,omitempty"`
}

// EntityPayload используется для действий, нацеленных на другую сущность (e.g. ATTACK).
type EntityPayload struct {
	TargetID string `json:"targetId"`
}

// InteractPayload взаимодействие с сущностью или точкой (INTERACT).
type InteractPayload struct {
	TargetID string           `json:"targetId,omitempty"`
	Action   string           `json:"action"`
	Position *PositionPayload `json:"position,omitempty"`
}

// PositionPayload используется для действий, нацеленных на точку на карте (e.g. TELEPORT).
type PositionPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}
