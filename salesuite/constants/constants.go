package constants

// App Name and usage.  Edit them here to prevent breaking tests
const Name = "salesuite"
const Usage = "Sales analytics toolkit CLI"

const Version = "1.0.0"

// Default locations shared between commands.
const (
	DefaultDataDir       = "data"
	DefaultReportDir     = "reports"
	DefaultExtractedDir  = "extracted_images"
	DefaultProcessedFile = "data/processed_data.xlsx"
)

// Canonical column names of the processed product sheet. The upstream
// workbooks use the Chinese business vocabulary; these are the exact headers
// expected after processing.
const (
	ColStyleNumber = "款号"
	ColProductName = "产品名称"
	ColCategory    = "品目"
	ColUploadedAt  = "上传时间"
)
