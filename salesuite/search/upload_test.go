package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeProductWorkbook(t *testing.T, header []string, rows [][]interface{}) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "processed_data.xlsx")
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &hdr))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(name))

	return name
}

func TestLoadProducts(t *testing.T) {
	name := writeProductWorkbook(t,
		[]string{"款号", "产品名称", "品目"},
		[][]interface{}{
			{"A001", "金戒指", "戒指"},
			{"A002", "银手镯", "手镯"},
		})

	docs, err := LoadProducts(name)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, ProductDoc{StyleNumber: "A001", ProductName: "金戒指", Category: "戒指"}, docs[0])
	assert.Equal(t, "银手镯", docs[1].ProductName)
}

func TestLoadProductsTrimsHeader(t *testing.T) {
	name := writeProductWorkbook(t,
		[]string{" 款号 ", "产品名称", "品目 "},
		[][]interface{}{{"A001", "金戒指", "戒指"}})

	docs, err := LoadProducts(name)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "A001", docs[0].StyleNumber)
	assert.Equal(t, "戒指", docs[0].Category)
}

func TestLoadProductsMissingColumns(t *testing.T) {
	name := writeProductWorkbook(t,
		[]string{"款号", "价格"},
		[][]interface{}{{"A001", "99.00"}})

	_, err := LoadProducts(name)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "产品名称")
	assert.Contains(t, err.Error(), "品目")
}

func TestLoadProductsMissingFile(t *testing.T) {
	_, err := LoadProducts(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workbook not found")
}

func TestUploadWorkbook(t *testing.T) {
	name := writeProductWorkbook(t,
		[]string{"款号", "产品名称", "品目"},
		[][]interface{}{
			{"A001", "金戒指", "戒指"},
			{"A002", "银手镯", "手镯"},
			{"A003", "翡翠吊坠", "吊坠"},
		})

	f := &fakeES{}
	c := newTestClient(t, f)

	result, err := c.UploadWorkbook(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Indexed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, result.DocCount)

	assert.True(t, f.indexExists)
	assert.True(t, f.refreshed)
	require.NotEmpty(t, f.bulkBodies)
	assert.Contains(t, f.bulkBodies[0], "上传时间")
}

func TestUploadWorkbookPartialFailure(t *testing.T) {
	name := writeProductWorkbook(t,
		[]string{"款号", "产品名称", "品目"},
		[][]interface{}{
			{"A001", "金戒指", "戒指"},
			{"A002", "银手镯", "手镯"},
		})

	bad := ProductDoc{StyleNumber: "A002", ProductName: "银手镯"}
	f := &fakeES{bulkErrIDs: map[string]bool{bad.ID(): true}}
	c := newTestClient(t, f)

	result, err := c.UploadWorkbook(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Indexed)
	assert.Equal(t, 1, result.Failed)
}
