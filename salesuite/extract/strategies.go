package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// Candidate is a payload a strategy proposes for extraction. Name is the
// output basename before the orchestrator applies the sequence prefix.
type Candidate struct {
	ArchivePath string
	Name        string
	Data        []byte
}

// Skip records an entry a strategy considered but could not use.
type Skip struct {
	Path     string
	Strategy string
	Reason   string
}

// Strategy is one pass over the archive's entry listing. Strategies are pure
// with respect to the output directory; naming and writing belong to the
// Scanner.
type Strategy interface {
	Name() string
	Scan(entries []*zip.File) (candidates []Candidate, skips []Skip)
}

// mediaFolderStrategy matches the canonical media folders of the OOXML
// container family (workbook, presentation and word-processor variants).
type mediaFolderStrategy struct{}

func (mediaFolderStrategy) Name() string { return "media-folders" }

func (s mediaFolderStrategy) Scan(entries []*zip.File) ([]Candidate, []Skip) {
	var candidates []Candidate
	var skips []Skip
	for _, entry := range entries {
		if !isMediaPath(entry.Name) {
			continue
		}

		data, err := readEntry(entry)
		if err != nil {
			skips = append(skips, Skip{entry.Name, s.Name(), err.Error()})
			continue
		}
		candidates = append(candidates, Candidate{entry.Name, path.Base(entry.Name), data})
	}

	return candidates, skips
}

func isMediaPath(name string) bool {
	return strings.HasPrefix(name, "xl/media/") ||
		strings.Contains(name, "/ppt/media/") ||
		strings.Contains(name, "/word/media/")
}

// imageExtensions is the tier-2 allow-list. Suffix matching is
// case-insensitive.
var imageExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".emf", ".wmf",
}

type extensionStrategy struct{}

func (extensionStrategy) Name() string { return "image-extensions" }

func (s extensionStrategy) Scan(entries []*zip.File) ([]Candidate, []Skip) {
	var candidates []Candidate
	var skips []Skip
	for _, entry := range entries {
		if !hasImageExtension(entry.Name) {
			continue
		}

		data, err := readEntry(entry)
		if err != nil {
			skips = append(skips, Skip{entry.Name, s.Name(), err.Error()})
			continue
		}
		candidates = append(candidates, Candidate{entry.Name, path.Base(entry.Name), data})
	}

	return candidates, skips
}

func hasImageExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// contentStrategy decodes likely entries to find images that neither live in
// a media folder nor carry an image extension. Decode failures are expected
// negatives, recorded as skips.
type contentStrategy struct {
	decoder Decoder
}

func (contentStrategy) Name() string { return "content-sniff" }

func (s contentStrategy) Scan(entries []*zip.File) ([]Candidate, []Skip) {
	var candidates []Candidate
	var skips []Skip
	for _, entry := range entries {
		lower := strings.ToLower(entry.Name)
		if !strings.Contains(lower, "drawings") &&
			!strings.Contains(lower, "image") &&
			!strings.Contains(lower, "media") {
			continue
		}

		data, err := readEntry(entry)
		if err != nil {
			skips = append(skips, Skip{entry.Name, s.Name(), err.Error()})
			continue
		}

		format, err := s.decoder.DetectFormat(data)
		if err != nil {
			skips = append(skips, Skip{entry.Name, s.Name(), "not a decodable image"})
			continue
		}
		if format == "" {
			format = "png"
		}

		candidates = append(candidates, Candidate{
			ArchivePath: entry.Name,
			Name:        "detected_image." + strings.ToLower(format),
			Data:        data,
		})
	}

	return candidates, skips
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive entry: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive entry: %w", err)
	}

	return data, nil
}
