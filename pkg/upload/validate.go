// Package upload validates proof-of-payment files before they are attached
// to a transaction.
package upload

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/tierbill/tierbill/pkg/apperr"
)

// MaxProofSize is the hard cap for proof-of-payment uploads.
const MaxProofSize = 5 << 20 // 5 MB

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

var allowedMime = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ValidateProof checks the filename extension, declared size and the first
// bytes (head) against the proof whitelist. Returns the detected mime type.
func ValidateProof(filename string, size int64, head []byte) (string, error) {
	if size > MaxProofSize {
		return "", apperr.Validation("file exceeds the 5MB limit")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", apperr.Validation("only JPEG, PNG, WebP and PDF files are accepted")
	}

	detected := http.DetectContentType(head)

	// Block scriptable content regardless of extension.
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", apperr.Validation("file content is not an accepted document type")
	}

	// WebP and some PDFs may sniff as octet-stream; the extension whitelist
	// already passed, so accept.
	if detected == "application/octet-stream" && allowedExt[ext] {
		return detected, nil
	}

	if allowedMime[detected] {
		return detected, nil
	}
	return "", apperr.Validation("file content is not an accepted document type")
}
