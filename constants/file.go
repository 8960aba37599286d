package constants

import "strings"

// Source formats a report can be read from.
const (
	PDF   = "PDF"
	DOCX  = "DOCX"
	IMAGE = "IMAGE"
)

// ImageExtensions are routed to OCR.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff"}

// FormatForPath maps a path to its source format by suffix. The match is case-sensitive:
// "scan.PNG" is not an image. Returns "" for unsupported paths.
func FormatForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".pdf"):
		return PDF
	case strings.HasSuffix(path, ".docx"):
		return DOCX
	}
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(path, ext) {
			return IMAGE
		}
	}
	return ""
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
