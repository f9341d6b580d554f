package domain

import "strings"

// VisibilityType определяет, кому видно событие
type VisibilityType string

const (
	VisibilityGlobal           VisibilityType = "GLOBAL"
	VisibilityArea             VisibilityType = "AREA"
	VisibilitySpecificEntities VisibilityType = "SPECIFIC_ENTITIES"
)

// ParseVisibilityType конвертирует строку из JSON в VisibilityType
func ParseVisibilityType(s string) (VisibilityType, bool) {
	switch t := VisibilityType(strings.ToUpper(s)); t {
	case VisibilityGlobal, VisibilityArea, VisibilitySpecificEntities:
		return t, true
	}
	return "", false
}

// Visibility is a tagged union: Center/Radius are set only for AREA,
// EntityIDs only for SPECIFIC_ENTITIES.
type Visibility struct {
	Type      VisibilityType `json:"type"`
	Center    *Position      `json:"center,omitempty"`
	Radius    float64        `json:"radius,omitempty"`
	EntityIDs []string       `json:"entityIds,omitempty"`
}

func Global() Visibility {
	return Visibility{Type: VisibilityGlobal}
}

func Area(center Position, radius float64) (Visibility, error) {
	v := Visibility{Type: VisibilityArea, Center: &center, Radius: radius}
	return v, v.Validate()
}

func SpecificEntities(ids ...string) (Visibility, error) {
	cp := make([]string, len(ids))
	copy(cp, ids)
	v := Visibility{Type: VisibilitySpecificEntities, EntityIDs: cp}
	return v, v.Validate()
}

// Validate проверяет, что для типа заданы нужные поля.
func (v Visibility) Validate() error {
	switch v.Type {
	case VisibilityGlobal:
		return nil
	case VisibilityArea:
		if v.Center == nil {
			return &ValidationError{Field: "visibility.center", Reason: "AREA visibility requires a center"}
		}
		if v.Radius < 0 {
			return &ValidationError{Field: "visibility.radius", Reason: "AREA radius must be non-negative"}
		}
		return nil
	case VisibilitySpecificEntities:
		if len(v.EntityIDs) == 0 {
			return &ValidationError{Field: "visibility.entityIds", Reason: "SPECIFIC_ENTITIES requires at least one id"}
		}
		for _, id := range v.EntityIDs {
			if id == "" {
				return &ValidationError{Field: "visibility.entityIds", Reason: "entity id must not be empty"}
			}
		}
		return nil
	}
	return &ValidationError{Field: "visibility.type", Reason: "unknown visibility type " + string(v.Type)}
}

// VisibleToEntity - видно ли событие наблюдателю с данным id.
// AREA события по id не сопоставляются: для них нужен пространственный запрос.
func (v Visibility) VisibleToEntity(entityID string) bool {
	switch v.Type {
	case VisibilityGlobal:
		return true
	case VisibilitySpecificEntities:
		for _, id := range v.EntityIDs {
			if id == entityID {
				return true
			}
		}
	}
	return false
}

// VisibleInArea matches an observer searching around center with radius.
// For AREA events the two radii are summed: the event is visible when the
// footprints overlap on the same z, i.e. planar dist² <= (eventR + observerR)².
func (v Visibility) VisibleInArea(center Position, radius float64) bool {
	switch v.Type {
	case VisibilityGlobal:
		return true
	case VisibilityArea:
		if v.Center == nil || v.Center.Z != center.Z {
			return false
		}
		combined := v.Radius + radius
		return float64(v.Center.PlanarDistanceSquaredTo(center)) <= combined*combined
	}
	return false
}

// Clone возвращает глубокую копию (слайс id и центр не разделяются).
func (v Visibility) Clone() Visibility {
	out := Visibility{Type: v.Type, Radius: v.Radius}
	if v.Center != nil {
		c := *v.Center
		out.Center = &c
	}
	if v.EntityIDs != nil {
		out.EntityIDs = append([]string(nil), v.EntityIDs...)
	}
	return out
}
