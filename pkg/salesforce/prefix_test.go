package salesforce

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestPrefix(t *testing.T) {
	t.Run("returns first three characters", func(t *testing.T) {
		assert.Equal(t, "003", Prefix("003XX0000012345"))
		assert.Equal(t, "0D5", Prefix("0D5XX0000000001"))
	})

	t.Run("exactly three characters", func(t *testing.T) {
		assert.Equal(t, "003", Prefix("003"))
	})

	t.Run("short IDs classify as empty", func(t *testing.T) {
		assert.Equal(t, "", Prefix("00"))
		assert.Equal(t, "", Prefix(""))
	})
}

func TestMappingSet_Match(t *testing.T) {
	set := NewMappingSet([]models.ObjectMapping{
		{Prefix: "003", ObjectName: "contacts", SearchProperty: "salesforce_id"},
		{Prefix: "001", ObjectName: "companies", SearchProperty: "salesforce_id"},
	})

	t.Run("mapped prefix matches", func(t *testing.T) {
		m, ok := set.Match("003XX0000012345")
		assert.True(t, ok)
		assert.Equal(t, "contacts", m.ObjectName)
	})

	t.Run("unmapped prefix does not match", func(t *testing.T) {
		_, ok := set.Match("500XX0000012345")
		assert.False(t, ok)
	})

	t.Run("short ID does not match", func(t *testing.T) {
		_, ok := set.Match("00")
		assert.False(t, ok)
	})
}

func TestIsFeedEntity(t *testing.T) {
	assert.True(t, IsFeedEntity("0D5XX0000000001"))
	assert.True(t, IsFeedEntity("0D7XX0000000001"))
	assert.False(t, IsFeedEntity("003XX0000012345"))
}
