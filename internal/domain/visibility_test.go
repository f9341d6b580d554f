package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibility_Constructors(t *testing.T) {
	_, err := SpecificEntities()
	assert.True(t, IsValidation(err), "empty id list is rejected")

	_, err = SpecificEntities("p1", "")
	assert.True(t, IsValidation(err))

	_, err = Area(Position{X: 1, Y: 1}, -1)
	assert.True(t, IsValidation(err))

	err = Visibility{Type: VisibilityArea, Radius: 3}.Validate()
	assert.True(t, IsValidation(err), "AREA without center is rejected")

	err = Visibility{Type: "NEARBY"}.Validate()
	assert.True(t, IsValidation(err))

	require.NoError(t, Global().Validate())
}

func TestVisibility_AreaUsesCombinedRadius(t *testing.T) {
	v, err := Area(Position{X: 10, Y: 10, Z: 0}, 5)
	require.NoError(t, err)

	assert.True(t, v.VisibleInArea(Position{X: 13, Y: 10, Z: 0}, 0), "distance 3 <= 5+0")
	assert.False(t, v.VisibleInArea(Position{X: 20, Y: 10, Z: 0}, 0), "distance 10 > 5")
	assert.True(t, v.VisibleInArea(Position{X: 20, Y: 10, Z: 0}, 5), "distance 10 <= 5+5")
	assert.False(t, v.VisibleInArea(Position{X: 10, Y: 10, Z: 1}, 100), "z must match")
}

func TestVisibility_EntityMatching(t *testing.T) {
	v, err := SpecificEntities("p1", "p2")
	require.NoError(t, err)

	assert.True(t, v.VisibleToEntity("p2"))
	assert.False(t, v.VisibleToEntity("p3"))
	assert.False(t, v.VisibleInArea(Position{}, 1000), "explicit lists are not spatial")

	assert.True(t, Global().VisibleToEntity("anyone"))
	assert.True(t, Global().VisibleInArea(Position{X: 1}, 0))

	area, _ := Area(Position{}, 50)
	assert.False(t, area.VisibleToEntity("p1"))
}

func TestVisibility_CloneIsDeep(t *testing.T) {
	v, _ := SpecificEntities("a")
	c := v.Clone()
	c.EntityIDs[0] = "b"
	assert.Equal(t, "a", v.EntityIDs[0])

	area, _ := Area(Position{X: 1}, 2)
	ac := area.Clone()
	ac.Center.X = 99
	assert.Equal(t, 1, area.Center.X)
}

func TestVisibility_JSON(t *testing.T) {
	area, _ := Area(Position{X: 1, Y: 2, Z: 3}, 4)
	raw, err := json.Marshal(area)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"AREA","center":{"x":1,"y":2,"z":3},"radius":4}`, string(raw))

	typ, ok := ParseVisibilityType("specific_entities")
	assert.True(t, ok)
	assert.Equal(t, VisibilitySpecificEntities, typ)
}
