package domain

import "github.com/oklog/ulid/v2"

// NewID возвращает ULID в строковом виде.
// ULID сортируется по времени создания, поэтому "newest-first" выборки можно делать по id.
func NewID() string {
	return ulid.Make().String()
}
