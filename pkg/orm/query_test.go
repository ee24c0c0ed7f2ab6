package orm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID       uint
	Name     string
	Category string
	Parts    []part
}

type part struct {
	ID       uint
	WidgetID uint
	Label    string
}

func setup(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&widget{}, &part{}))

	for i := 1; i <= 5; i++ {
		cat := "a"
		if i%2 == 0 {
			cat = "b"
		}
		w := widget{Name: fmt.Sprintf("w%d", i), Category: cat, Parts: []part{{Label: "p"}}}
		require.NoError(t, db.Create(&w).Error)
	}
	return db
}

func TestPaginate(t *testing.T) {
	db := setup(t)

	var page []widget
	meta, err := New(context.Background(), db).
		Model(&widget{}).
		Where("category = ?", "a").
		Order("id asc").
		Paginate(2, 2, &page, "Parts")
	require.NoError(t, err)

	assert.Equal(t, Meta{Page: 2, PerPage: 2, Total: 3}, meta)
	require.Len(t, page, 1)
	assert.Equal(t, "w5", page[0].Name)
	assert.Len(t, page[0].Parts, 1)
}

func TestFirstNotFound(t *testing.T) {
	db := setup(t)

	var w widget
	found, err := New(context.Background(), db).Where("name = ?", "zzz").First(&w)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = New(context.Background(), db).WhereIf(true, "name = ?", "w2").WhereIf(false, "name = ?", "w3").First(&w)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "w2", w.Name)
}
