package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pborman/uuid"
	"github.com/retailops/salesuite-app/log"
	"github.com/retailops/salesuite-app/salesuite/constants"
	"github.com/retailops/salesuite-app/salesuite/utils"
	"github.com/xuri/excelize/v2"
)

const uploadTimeLayout = "2006-01-02 15:04:05"

// ProductDoc is one indexed product. Field names match the index mapping.
type ProductDoc struct {
	StyleNumber string `json:"款号"`
	ProductName string `json:"产品名称"`
	Category    string `json:"品目"`
	UploadedAt  string `json:"上传时间"`
}

// ID derives a stable document identifier from the product key, so
// re-uploading the same sheet overwrites rather than duplicates.
func (d ProductDoc) ID() string {
	return uuid.NewSHA1(uuid.NameSpace_DNS,
		[]byte(d.StyleNumber+"-"+d.ProductName)).String()
}

// UploadResult summarizes one upload run.
type UploadResult struct {
	Total    int
	Indexed  int
	Failed   int
	DocCount int
}

// LoadProducts reads the processed workbook and returns its rows as indexable
// documents (without the upload timestamp, which UploadWorkbook stamps).
func LoadProducts(name string) ([]ProductDoc, error) {
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("workbook not found: %w", err)
	}

	f, err := excelize.OpenFile(filepath.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook %s has no rows", name)
	}

	header := rows[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}

	var missing []string
	for _, required := range []string{constants.ColStyleNumber, constants.ColProductName, constants.ColCategory} {
		if !utils.ContainsString(header, required) {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("workbook is missing required columns: %s",
			strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		if i := idx[col]; i < len(row) {
			return row[i]
		}
		return ""
	}

	docs := make([]ProductDoc, 0, len(rows)-1)
	for _, row := range rows[1:] {
		docs = append(docs, ProductDoc{
			StyleNumber: cell(row, constants.ColStyleNumber),
			ProductName: cell(row, constants.ColProductName),
			Category:    cell(row, constants.ColCategory),
		})
	}

	return docs, nil
}

// UploadWorkbook pushes every row of the processed workbook into the index:
// ping, ensure the index exists, bulk-index, refresh, report the doc count.
func (c *Client) UploadWorkbook(ctx context.Context, name string) (*UploadResult, error) {
	docs, err := LoadProducts(name)
	if err != nil {
		return nil, err
	}
	log.Search.Infof("Loaded %d rows from %s", len(docs), name)

	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	if err := c.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	uploadedAt := time.Now().Format(uploadTimeLayout)
	for i := range docs {
		docs[i].UploadedAt = uploadedAt
	}

	indexed, failed, err := c.BulkIndex(ctx, docs)
	if err != nil {
		return nil, err
	}

	if err := c.Refresh(ctx); err != nil {
		log.Search.Warnf("Failed to refresh index: %s", err)
	}
	count, err := c.Count(ctx)
	if err != nil {
		log.Search.Warnf("Failed to count documents: %s", err)
	} else {
		log.Search.Infof("Index %s now holds %d documents", c.cfg.Index, count)
	}

	log.Search.Infof("Upload complete. Total: %d, indexed: %d, failed: %d",
		len(docs), indexed, failed)

	return &UploadResult{Total: len(docs), Indexed: indexed, Failed: failed, DocCount: count}, nil
}
