package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDisc() DiscProperties {
	return DiscProperties{
		X: 1, Y: 2, XSpeed: 3, YSpeed: 4, XGravity: 0.1, YGravity: 0.2,
		Radius: 10, BCoef: 0.5, InvMass: 1, Damping: 0.99,
		Color: 0xFFFFFF, CMask: 63, CGroup: 193,
	}
}

func TestApplyPartialUpdateKeepsOtherFields(t *testing.T) {
	before := sampleDisc()
	after := before.Apply(DiscPropertiesUpdate{X: Float(5)})

	assert.Equal(t, 5.0, after.X)
	after.X = before.X
	assert.Equal(t, before, after, "fields other than x must be untouched")
}

func TestApplyEmptyUpdateIsIdentity(t *testing.T) {
	before := sampleDisc()
	assert.Equal(t, before, before.Apply(DiscPropertiesUpdate{}))
	assert.True(t, DiscPropertiesUpdate{}.IsEmpty())
}

func TestApplyZeroValuesAreWritten(t *testing.T) {
	after := sampleDisc().Apply(DiscPropertiesUpdate{Radius: Float(0), Color: Int(-1)})
	assert.Equal(t, 0.0, after.Radius)
	assert.Equal(t, -1, after.Color)
}

func TestUpdateOmitsUnsetFieldsOnTheWire(t *testing.T) {
	b, err := json.Marshal(DiscPropertiesUpdate{YSpeed: Float(0), CGroup: Int(2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"yspeed":0,"cGroup":2}`, string(b))
}

func TestCollisionMask(t *testing.T) {
	mask, err := DefaultCollisionFlags.Mask("ball", "red", "c0")
	require.NoError(t, err)
	assert.Equal(t, 1|2|1<<28, mask)

	_, err = DefaultCollisionFlags.Mask("goalie")
	assert.Error(t, err)
}

func TestParseTeam(t *testing.T) {
	team, err := ParseTeam("blue")
	require.NoError(t, err)
	assert.Equal(t, Blue, team)
	assert.Equal(t, "red", Red.String())

	_, err = ParseTeam("green")
	assert.Error(t, err)
	assert.False(t, Team(7).Valid())
}
