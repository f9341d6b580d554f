package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// commandSchemaJSON - схема конверта ClientCommand. Payload проверяется уже типизированно.
const commandSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["action"],
  "additionalProperties": false,
  "properties": {
    "requestId": {"type": "string", "maxLength": 64},
    "token": {"type": "string", "maxLength": 512},
    "action": {"type": "string", "pattern": "^[A-Z][A-Z_]*$"},
    "payload": {"type": ["object", "null"]}
  },
  "if": {"properties": {"action": {"const": "LOGIN"}}},
  "then": {"required": ["token"], "properties": {"token": {"minLength": 1}}}
}`

// ErrInvalidCommand - сообщение клиента не прошло схему или не декодируется
var ErrInvalidCommand = errors.New("invalid command")

var commandSchema = jsonschema.MustCompileString("client_command.schema.json", commandSchemaJSON)

// ParseCommand проверяет сырое сообщение клиента по схеме и декодирует его.
func ParseCommand(raw []byte) (ClientCommand, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ClientCommand{}, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidCommand, err)
	}
	if err := commandSchema.Validate(doc); err != nil {
		return ClientCommand{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	var cmd ClientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return ClientCommand{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	return cmd, nil
}
