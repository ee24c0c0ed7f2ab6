package csvstock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWithFooter(t *testing.T) {
	rep := Parse("SKU1,10\nSKU2,abc\nid=2025-01-01T00:00:00.000Z,stock=08:00")

	assert.Equal(t, []Row{{SKU: "SKU1", Stock: 10}}, rep.ValidRows)
	assert.Equal(t, []string{"SKU2,abc"}, rep.UnparsedRows)
	require.NotNil(t, rep.StockExportTime)
	assert.Equal(t, "08:00", *rep.StockExportTime)
}

func TestParseSkipsBlankLinesAndTrims(t *testing.T) {
	rep := Parse("\r\n  SKU1 , 4 \r\n\r\n\"SKU,2\",7\r\n")

	assert.Equal(t, []Row{{SKU: "SKU1", Stock: 4}, {SKU: "SKU,2", Stock: 7}}, rep.ValidRows)
	assert.Empty(t, rep.UnparsedRows)
	assert.Nil(t, rep.StockExportTime)
}

func TestParseLastLineNeverUnparsed(t *testing.T) {
	rep := Parse("bad\nSKU1,1\n,5\nalso-bad")

	assert.Equal(t, []Row{{SKU: "SKU1", Stock: 1}}, rep.ValidRows)
	assert.Equal(t, []string{"bad", ",5"}, rep.UnparsedRows)
	assert.Nil(t, rep.StockExportTime)
}

func TestParseDropsTrailingIDRowWhenFooterMatches(t *testing.T) {
	rep := Parse("SKU1,3\nid=legacy,9\nid=2025-01-01T00:00:00.000Z,stock=23:59")

	assert.Equal(t, []Row{{SKU: "SKU1", Stock: 3}}, rep.ValidRows)
	assert.Equal(t, "23:59", *rep.StockExportTime)
}

func TestParseRejectsNonIntegerStock(t *testing.T) {
	rep := Parse("SKU1,1.5\nSKU3,-4\nSKU2,2\n")

	assert.Equal(t, []Row{{SKU: "SKU2", Stock: 2}}, rep.ValidRows)
	assert.Equal(t, []string{"SKU1,1.5", "SKU3,-4"}, rep.UnparsedRows)
}

func TestParseEmpty(t *testing.T) {
	rep := Parse("  \n\n")
	assert.Empty(t, rep.ValidRows)
	assert.Empty(t, rep.UnparsedRows)
	assert.Nil(t, rep.StockExportTime)
}
