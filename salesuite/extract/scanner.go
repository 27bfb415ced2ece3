package extract

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/retailops/salesuite-app/log"
	"github.com/retailops/salesuite-app/salesuite/utils"
	"github.com/sirupsen/logrus"
)

// ErrNotArchive indicates the source file is not a zip-structured document.
var ErrNotArchive = errors.New("source file is not a valid zip archive")

// ExtractedFile is one written image: its 1-based sequence number, the
// archive entry it came from and the path it was written to.
type ExtractedFile struct {
	Seq         int
	ArchivePath string
	OutputPath  string
}

// Report is the observable outcome of a scan: every written file in order,
// every skipped entry with its reason, and (when nothing was extracted) the
// distinct set of extensions seen in the archive.
type Report struct {
	Extracted  []ExtractedFile
	Skipped    []Skip
	Extensions []string
}

// Count returns the number of images written.
func (r *Report) Count() int { return len(r.Extracted) }

// Scanner extracts embedded images from a zip-structured spreadsheet,
// presentation or word-processor document. Strategies run in order and the
// scan stops after the first strategy that yields at least one written file.
type Scanner struct {
	decoder Decoder
	logger  logrus.FieldLogger
}

// NewScanner builds a Scanner with the given decode capability. A nil decoder
// disables the content-sniffing strategy.
func NewScanner(decoder Decoder) *Scanner {
	return &Scanner{decoder: decoder, logger: log.Extract}
}

// DefaultScanner returns a Scanner with the standard image decoders wired in.
func DefaultScanner() *Scanner {
	return NewScanner(NewStdDecoder())
}

func (s *Scanner) strategies() []Strategy {
	strategies := []Strategy{mediaFolderStrategy{}, extensionStrategy{}}
	if s.decoder != nil {
		strategies = append(strategies, contentStrategy{decoder: s.decoder})
	}
	return strategies
}

// ExtractImages scans the archive at srcPath and writes every discovered
// image into outputDir, creating it (and parents) as needed. Fatal conditions
// (missing source, unreadable archive, output directory failure) are returned
// as errors with an empty report; per-entry failures are recorded in the
// report and do not abort the run.
func (s *Scanner) ExtractImages(srcPath, outputDir string) (*Report, error) {
	report := &Report{}

	if _, err := os.Stat(srcPath); err != nil {
		return report, fmt.Errorf("source file not found: %w", err)
	}
	if size, err := utils.FileSizeMB(srcPath); err == nil {
		s.logger.Infof("Source file size: %.2f MB", size)
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return report, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	r, err := zip.OpenReader(filepath.Clean(srcPath))
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return report, fmt.Errorf("%w: %s", ErrNotArchive, srcPath)
		}
		return report, fmt.Errorf("failed to open archive %s: %w", srcPath, err)
	}
	defer r.Close()

	entries := r.File
	s.logger.Infof("Archive contains %d entries", len(entries))
	for i, entry := range entries {
		if i >= 20 {
			break
		}
		s.logger.Debugf("  - %s", entry.Name)
	}

	for _, strategy := range s.strategies() {
		if report.Count() > 0 {
			break
		}
		s.logger.Infof("Running %s strategy...", strategy.Name())

		candidates, skips := strategy.Scan(entries)
		report.Skipped = append(report.Skipped, skips...)
		for _, skip := range skips {
			s.logger.Warnf("Skipped %s (%s): %s", skip.Path, skip.Strategy, skip.Reason)
		}

		s.writeCandidates(report, strategy.Name(), candidates, outputDir)
	}

	if report.Count() > 0 {
		s.logger.Infof("Extracted %d images to %s", report.Count(), outputDir)
	} else {
		report.Extensions = distinctExtensions(entries)
		s.logger.Infof("No images found. Archive extensions: %s",
			strings.Join(report.Extensions, ", "))
	}

	return report, nil
}

// writeCandidates writes each candidate as <n>_<name>, where n is the 1-based
// running count of extracted images. The sequence prefix keeps colliding
// basenames from different archive folders apart.
func (s *Scanner) writeCandidates(report *Report, strategy string, candidates []Candidate, outputDir string) {
	for _, c := range candidates {
		seq := report.Count() + 1
		outputPath := filepath.Join(outputDir, fmt.Sprintf("%d_%s", seq, c.Name))

		if err := os.WriteFile(outputPath, c.Data, 0640); err != nil {
			report.Skipped = append(report.Skipped, Skip{c.ArchivePath, strategy, err.Error()})
			s.logger.Warnf("Failed to write %s: %s", outputPath, err)
			continue
		}

		report.Extracted = append(report.Extracted, ExtractedFile{seq, c.ArchivePath, outputPath})
		s.logger.Infof("Saved image %d: %s", seq, outputPath)
	}
}

func distinctExtensions(entries []*zip.File) []string {
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if ext := filepath.Ext(entry.Name); ext != "" {
			seen[ext] = struct{}{}
		}
	}

	exts := make([]string, 0, len(seen))
	for ext := range seen {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	return exts
}
