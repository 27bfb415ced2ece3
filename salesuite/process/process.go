package process

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/retailops/salesuite-app/log"
	"github.com/retailops/salesuite-app/salesuite/constants"
	"github.com/retailops/salesuite-app/salesuite/utils"
	"github.com/xuri/excelize/v2"
)

// requiredColumns are the canonical product-sheet columns, in output order.
var requiredColumns = []string{
	constants.ColStyleNumber,
	constants.ColProductName,
	constants.ColCategory,
}

// dedupKeyColumns identify a product row; later rows with the same key are
// duplicates.
var dedupKeyColumns = []string{
	constants.ColStyleNumber,
	constants.ColProductName,
}

// Result summarizes one processing run.
type Result struct {
	Rows       int
	Duplicates int
	// Matched maps each canonical column to the header it was found under.
	Matched map[string]string
}

// ProcessWorkbook reads the first sheet of the input workbook, extracts the
// three product columns (tolerating whitespace and near-miss headers),
// drops duplicate rows keyed on 款号+产品名称 keeping the first occurrence,
// and writes the result to outputPath.
func ProcessWorkbook(inputPath, outputPath string) (*Result, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return nil, fmt.Errorf("input workbook not found: %w", err)
	}
	if size, err := utils.FileSizeMB(inputPath); err == nil {
		log.Process.Infof("Workbook size: %.2f MB", size)
	}

	records, err := readFirstSheet(inputPath)
	if err != nil {
		return nil, err
	}
	log.Process.Infof("Loaded %d rows x %d columns", len(records)-1, len(records[0]))

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String))
	if df.Err != nil {
		return nil, fmt.Errorf("failed to load records: %w", df.Err)
	}

	matched, missing := matchColumns(df.Names())
	if len(missing) > 0 {
		return nil, fmt.Errorf("workbook is missing required columns: %s",
			strings.Join(missing, ", "))
	}

	actual := make([]string, len(requiredColumns))
	for i, req := range requiredColumns {
		actual[i] = matched[req]
	}
	df = df.Select(actual)
	for _, req := range requiredColumns {
		if matched[req] != req {
			log.Process.Infof("Matched column %q as %q", matched[req], req)
			df = df.Rename(req, matched[req])
		}
	}
	if df.Err != nil {
		return nil, fmt.Errorf("failed to select required columns: %w", df.Err)
	}

	rows := df.Records()
	deduped, dropped := dropDuplicates(rows[0], rows[1:])
	log.Process.Infof("Dropped %d duplicate rows, %d remain", dropped, len(deduped))

	if err := writeWorkbook(outputPath, rows[0], deduped); err != nil {
		return nil, err
	}

	return &Result{Rows: len(deduped), Duplicates: dropped, Matched: matched}, nil
}

func readFirstSheet(name string) ([][]string, error) {
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

	// Clean header whitespace and pad ragged rows so every record has the
	// header's width.
	width := len(rows[0])
	for i, cell := range rows[0] {
		rows[0][i] = strings.TrimSpace(cell)
	}
	for i := 1; i < len(rows); i++ {
		for len(rows[i]) < width {
			rows[i] = append(rows[i], "")
		}
		rows[i] = rows[i][:width]
	}

	return rows, nil
}

// matchColumns resolves each required column against the sheet headers: exact
// match first, then the first header containing the required name.
func matchColumns(headers []string) (map[string]string, []string) {
	matched := make(map[string]string, len(requiredColumns))
	var missing []string

	for _, req := range requiredColumns {
		if utils.ContainsString(headers, req) {
			matched[req] = req
			continue
		}

		found := ""
		for _, header := range headers {
			if strings.Contains(header, req) {
				found = header
				break
			}
		}
		if found == "" {
			missing = append(missing, req)
			continue
		}
		matched[req] = found
	}

	return matched, missing
}

func dropDuplicates(header []string, rows [][]string) ([][]string, int) {
	keyIdx := make([]int, 0, len(dedupKeyColumns))
	for _, key := range dedupKeyColumns {
		for i, h := range header {
			if h == key {
				keyIdx = append(keyIdx, i)
				break
			}
		}
	}

	seen := make(map[string]struct{}, len(rows))
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, len(keyIdx))
		for i, idx := range keyIdx {
			parts[i] = row[idx]
		}
		key := strings.Join(parts, "\x00")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}

	return kept, len(rows) - len(kept)
}

func writeWorkbook(name string, header []string, rows [][]string) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &cells); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(name); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}
