package catalog

import (
	"testing"

	"checkout-service/internal/models"
	"checkout-service/internal/refdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogCSV = `productcd,p_fullname,price,status,group,description
101_LB_0360_01,L standing base set,"12,800",on,Base sets,"stand, box included"
201_LB_0400_01,L sitting base set,13800,on,Base sets,
101_LO_0000_01,Skeleton for L,3000,on,Parts,
301_SB_0240_01,S base set,9800,on,Base sets,
901_DR_0060_01,Dress,2500,on,,
902_HT_0030_01,Hat,1200,off,Items,
HANDCARE,Care kit,800,on,Items,
`

func loadIndex(t *testing.T) *Index {
	t.Helper()
	rows, err := refdata.ParseTable(catalogCSV, refdata.CatalogShape)
	require.NoError(t, err)
	return FromRows(rows)
}

func TestFromRows(t *testing.T) {
	idx := loadIndex(t)
	assert.Equal(t, 7, idx.Len())

	rec, ok := idx.Lookup("101_LB_0360_01")
	require.True(t, ok)
	assert.Equal(t, "L standing base set", rec.FullName)
	assert.Equal(t, int64(12800), rec.UnitPrice)
	assert.Equal(t, int64(360), rec.SizeWeight)
	assert.Equal(t, "stand, box included", rec.Description)

	rec, ok = idx.Lookup("901_DR_0060_01")
	require.True(t, ok)
	assert.Equal(t, models.DefaultGroup, rec.Group)

	rec, ok = idx.Lookup("HANDCARE")
	require.True(t, ok)
	assert.Equal(t, int64(0), rec.SizeWeight)
}

func TestLookupSkipsInactiveAndUnknown(t *testing.T) {
	idx := loadIndex(t)

	_, ok := idx.Lookup("902_HT_0030_01")
	assert.False(t, ok)

	_, ok = idx.Lookup("nope")
	assert.False(t, ok)
}

func TestGroups(t *testing.T) {
	idx := loadIndex(t)
	groups := idx.Groups()

	require.Len(t, groups, 4)
	assert.Equal(t, "Base sets", groups[0].Name)
	assert.Len(t, groups[0].Products, 3)
	assert.Equal(t, "Parts", groups[1].Name)
	assert.Equal(t, models.DefaultGroup, groups[2].Name)
	assert.Equal(t, "Items", groups[3].Name)
	assert.Len(t, groups[3].Products, 1)
}

func TestNewDuplicateCodeKeepsPosition(t *testing.T) {
	idx := New([]models.ProductRecord{
		{Code: "A", FullName: "first", Active: true},
		{Code: "B", Active: true},
		{Code: "A", FullName: "second", Active: true},
	})

	active := idx.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "A", active[0].Code)
	assert.Equal(t, "second", active[0].FullName)
}

func TestSizeWeight(t *testing.T) {
	tests := []struct {
		code string
		want int64
	}{
		{"101_LB_0360_01", 360},
		{"101_LO_0000_01", 0},
		{"901_DR_12ab", 12},
		{"901_DR", 0},
		{"PLAIN", 0},
		{"901_DR_x1", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeWeight(tt.code), tt.code)
	}
}

func TestClassification(t *testing.T) {
	assert.True(t, IsBaseSet("101_LB_0360_01"))
	assert.True(t, IsBaseSet("301_SB_0240_01"))
	assert.False(t, IsBaseSet("101_LO_0000_01"))
	assert.False(t, IsBaseSet("HANDCARE"))

	assert.True(t, IsTallBaseSet("201_LB_0400_01"))
	assert.False(t, IsTallBaseSet("301_SB_0240_01"))
	assert.True(t, IsShortBaseSet("301_SB_0240_01"))

	assert.True(t, IsStandingTallBaseSet("101_LB_0360_01"))
	assert.False(t, IsStandingTallBaseSet("201_LB_0400_01"))
}
