package constants

import "strings"

// AnalyzableExtensions holds the file extensions the analysis trigger accepts.
// Anything else landing in the image store is skipped.
var AnalyzableExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"pdf":  {},
	"tiff": {},
	"tif":  {},
}

// UploadMIMETypes holds the declared content types accepted by the upload endpoint.
var UploadMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"application/pdf": {},
}

const (
	// RecordSuffix is appended to the stem of the source filename to name its extraction record.
	RecordSuffix = "_json.txt"
	// DefaultImageExt is used to rebuild a display filename when a record carries no source_file.
	DefaultImageExt = ".jpg"
	// MaxUploadBytes is the default cap on the decoded upload payload (5 MiB).
	MaxUploadBytes = 5 * 1024 * 1024
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAnalyzable reports whether a key's extension is in the analysis allow-list.
func IsAnalyzable(key string) bool {
	i := strings.LastIndex(key, ".")
	if i < 0 {
		return false
	}
	_, ok := AnalyzableExtensions[NormalizeExt(key[i:])]
	return ok
}

// IsUploadType reports whether a declared MIME type may be uploaded.
func IsUploadType(mime string) bool {
	_, ok := UploadMIMETypes[mime]
	return ok
}
