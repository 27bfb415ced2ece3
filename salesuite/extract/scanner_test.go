package extract_test

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/retailops/salesuite-app/salesuite/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name string
	data []byte
}

// writeArchive builds a zip fixture with a deterministic entry order.
func writeArchive(t *testing.T, entries []zipEntry) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "source.xlsx")
	f, err := os.Create(name)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for _, entry := range entries {
		ew, err := w.Create(entry.name)
		require.NoError(t, err)
		_, err = ew.Write(entry.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return name
}

// validPNG returns the encoded bytes of a small real image, for entries that
// must survive decode-based validation.
func validPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExtractImagesMediaFolder(t *testing.T) {
	img1 := bytes.Repeat([]byte{0xAA}, 500)
	img2 := bytes.Repeat([]byte{0xBB}, 300)
	src := writeArchive(t, []zipEntry{
		{"[Content_Types].xml", []byte("<Types/>")},
		{"xl/workbook.xml", []byte("<workbook/>")},
		{"xl/media/image1.png", img1},
		{"xl/media/image2.jpg", img2},
	})
	outputDir := filepath.Join(t.TempDir(), "out")

	report, err := extract.DefaultScanner().ExtractImages(src, outputDir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count())
	assert.Empty(t, report.Skipped)

	got1, err := os.ReadFile(filepath.Join(outputDir, "1_image1.png"))
	require.NoError(t, err)
	assert.Equal(t, img1, got1)

	got2, err := os.ReadFile(filepath.Join(outputDir, "2_image2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, img2, got2)
}

func TestExtractImagesWordAndPresentationVariants(t *testing.T) {
	src := writeArchive(t, []zipEntry{
		{"nested/word/media/figure.gif", []byte("gif-bytes")},
		{"nested/ppt/media/slide.jpeg", []byte("jpeg-bytes")},
	})
	outputDir := filepath.Join(t.TempDir(), "out")

	report, err := extract.DefaultScanner().ExtractImages(src, outputDir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count())
	assert.FileExists(t, filepath.Join(outputDir, "1_figure.gif"))
	assert.FileExists(t, filepath.Join(outputDir, "2_slide.jpeg"))
}

func TestExtractImagesCollidingBasenames(t *testing.T) {
	src := writeArchive(t, []zipEntry{
		{"xl/media/image1.png", []byte("first")},
		{"a/word/media/image1.png", []byte("second")},
	})
	outputDir := filepath.Join(t.TempDir(), "out")

	report, err := extract.DefaultScanner().ExtractImages(src, outputDir)
	require.NoError(t, err)
	require.Equal(t, 2, report.Count())

	// The sequence prefix keeps identical basenames apart.
	assert.NotEqual(t, report.Extracted[0].OutputPath, report.Extracted[1].OutputPath)
	assert.FileExists(t, filepath.Join(outputDir, "1_image1.png"))
	assert.FileExists(t, filepath.Join(outputDir, "2_image1.png"))
}

func TestExtractImagesExtensionFallback(t *testing.T) {
	src := writeArchive(t, []zipEntry{
		{"xl/workbook.xml", []byte("<workbook/>")},
		{"custom/chart.PNG", []byte("png-ish")},
		{"custom/logo.bmp", []byte("bmp-ish")},
		{"custom/readme.txt", []byte("not an image")},
	})
	outputDir := filepath.Join(t.TempDir(), "out")

	report, err := extract.DefaultScanner().ExtractImages(src, outputDir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count())

	// Suffix matching is case-insensitive.
	assert.FileExists(t, filepath.Join(outputDir, "1_chart.PNG"))
	assert.FileExists(t, filepath.Join(outputDir, "2_logo.bmp"))
}

func TestExtractImagesContentSniffing(t *testing.T) {
	pngBytes := validPNG(t)
	src := writeArchive(t, []zipEntry{
		{"xl/drawings/drawing1.xml", []byte("<xdr:wsDr/>")},
		{"xl/drawings/blob1", pngBytes},
	})
	outputDir := filepath.Join(t.TempDir(), "out")

	report, err := extract.DefaultScanner().ExtractImages(src, outputDir)
	require.NoError(t, err)
	require.Equal(t, 1, report.Count())

	// Decoder-reported format names the file; bytes are written verbatim.
	got, err := os.ReadFile(filepath.Join(outputDir, "1_detected_image.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	// The XML entry is an expected negative, not an error.
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "xl/drawings/drawing1.xml", report.Skipped[0].Path)
}

func TestExtractImagesNoDecoderSkipsContentStrategy(t *testing.T) {
	src := writeArchive(t, []zipEntry{
		{"xl/drawings/blob1", validPNG(t)},
	})
	outputDir := filepath.Join(t.TempDir(), "out")

	report, err := extract.NewScanner(nil).ExtractImages(src, outputDir)
	require.NoError(t, err)
	assert.Zero(t, report.Count())
	assert.NotEmpty(t, report.Extensions)
}

func TestExtractImagesTierPrecedence(t *testing.T) {
	// Media-folder hits short-circuit the later strategies: the .gif outside
	// any media folder must not be extracted.
	src := writeArchive(t, []zipEntry{
		{"xl/media/image1.png", []byte("media")},
		{"elsewhere/banner.gif", []byte("stray")},
	})
	outputDir := filepath.Join(t.TempDir(), "out")

	report, err := extract.DefaultScanner().ExtractImages(src, outputDir)
	require.NoError(t, err)
	require.Equal(t, 1, report.Count())
	assert.Equal(t, "xl/media/image1.png", report.Extracted[0].ArchivePath)
}

func TestExtractImagesNoImages(t *testing.T) {
	src := writeArchive(t, []zipEntry{
		{"xl/workbook.xml", []byte("<workbook/>")},
		{"xl/styles.xml", []byte("<styleSheet/>")},
		{"docProps/core.xml", []byte("<coreProperties/>")},
	})
	outputDir := filepath.Join(t.TempDir(), "out")

	report, err := extract.DefaultScanner().ExtractImages(src, outputDir)
	require.NoError(t, err)
	assert.Zero(t, report.Count())
	assert.Equal(t, []string{".xml"}, report.Extensions)
}

func TestExtractImagesSourceMissing(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "out")

	report, err := extract.DefaultScanner().ExtractImages(
		filepath.Join(t.TempDir(), "missing.xlsx"), outputDir)
	assert.Error(t, err)
	assert.Zero(t, report.Count())
	assert.NoDirExists(t, outputDir)
}

func TestExtractImagesCorruptArchive(t *testing.T) {
	src := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("this is not a zip file"), 0600))
	outputDir := filepath.Join(t.TempDir(), "out")

	report, err := extract.DefaultScanner().ExtractImages(src, outputDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrNotArchive)
	assert.Zero(t, report.Count())
}

func TestExtractImagesIdempotent(t *testing.T) {
	src := writeArchive(t, []zipEntry{
		{"xl/media/image1.png", bytes.Repeat([]byte{0x01}, 64)},
		{"xl/media/image2.jpg", bytes.Repeat([]byte{0x02}, 64)},
	})

	read := func(dir string) map[string][]byte {
		report, err := extract.DefaultScanner().ExtractImages(src, dir)
		require.NoError(t, err)
		out := make(map[string][]byte, report.Count())
		for _, f := range report.Extracted {
			data, err := os.ReadFile(f.OutputPath)
			require.NoError(t, err)
			out[filepath.Base(f.OutputPath)] = data
		}
		return out
	}

	first := read(filepath.Join(t.TempDir(), "a"))
	second := read(filepath.Join(t.TempDir(), "b"))
	assert.Equal(t, first, second)
}
