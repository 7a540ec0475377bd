package excel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"estimateml/domain/core"
	"estimateml/domain/items"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []items.Item {
	return []items.Item{
		{ID: "a1", Name: "Штукатурка стен", Category: "plastering", Price: 380.5, Quantity: 120, Unit: "м²", Region: "moscow"},
		{ID: "a2", Name: "Покраска потолка", Category: "painting", Price: 250, Quantity: 40, Unit: "м²"},
	}
}

func TestWriteAndReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimate.xlsx")
	require.NoError(t, WriteItems(path, sample()))

	got, err := NewItemReader(nil).ReadItems(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestWriteAndReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimate.csv")
	require.NoError(t, WriteItems(path, sample()))

	got, err := NewItemReader(nil).ReadItems(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestReadCSV_RussianHeadersAndNumberFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smeta.csv")
	content := "Наименование,Цена,Количество,Ед. изм.,Примечание\n" +
		"Укладка плитки,\"1 450,50\",\"12,5\",м²,срочно\n" +
		",,,,\n" +
		"Демонтаж,\"1,200.00\",,шт,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := NewItemReader(nil).ReadItems(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "row-2", got[0].ID)
	assert.Equal(t, "Укладка плитки", got[0].Name)
	assert.InDelta(t, 1450.5, got[0].Price, 1e-9)
	assert.InDelta(t, 12.5, got[0].Quantity, 1e-9)
	assert.Equal(t, "м²", got[0].Unit)

	assert.Equal(t, "row-4", got[1].ID)
	assert.InDelta(t, 1200, got[1].Price, 1e-9)
	assert.InDelta(t, 1, got[1].Quantity, 1e-9, "missing quantity defaults to 1")
}

func TestReadItems_Errors(t *testing.T) {
	dir := t.TempDir()
	r := NewItemReader(nil)

	_, err := r.ReadItems(context.Background(), filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)

	noPrice := filepath.Join(dir, "noprice.csv")
	require.NoError(t, os.WriteFile(noPrice, []byte("name,quantity\nШтукатурка,10\n"), 0o644))
	_, err = r.ReadItems(context.Background(), noPrice)
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))

	badPrice := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(badPrice, []byte("name,price\nШтукатурка,дорого\n"), 0o644))
	_, err = r.ReadItems(context.Background(), badPrice)
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "row 2")

	headerOnly := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte("name,price\n"), 0o644))
	_, err = r.ReadItems(context.Background(), headerOnly)
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"1234.5":   1234.5,
		"1 234,50": 1234.5,
		"1,234.50": 1234.5,
		"350 руб.": 350,
		"99,9":     99.9,
	}
	for in, want := range cases {
		got, err := parseNumber(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}

	for _, bad := range []string{"", "abc", "-5"} {
		_, err := parseNumber(bad)
		assert.Error(t, err, bad)
	}
}
