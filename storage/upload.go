package storage

import (
	"messenger/domain"
	"messenger/errors"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// UploadPolicy decides whether an upload may become an attachment.
// Extensions are the declared type; the content is sniffed as well, so a
// binary renamed to .png is still rejected.
type UploadPolicy struct {
	maxBytes      int64
	allowedImages map[string]struct{}
	allowedFiles  map[string]struct{}
}

func NewUploadPolicy(maxUploadMB int64, allowedImages, allowedFiles []string) UploadPolicy {
	policy := UploadPolicy{
		maxBytes:      maxUploadMB * 1024 * 1024,
		allowedImages: make(map[string]struct{}, len(allowedImages)),
		allowedFiles:  make(map[string]struct{}, len(allowedFiles)),
	}
	for _, ext := range allowedImages {
		policy.allowedImages[strings.ToLower(ext)] = struct{}{}
	}
	for _, ext := range allowedFiles {
		policy.allowedFiles[strings.ToLower(ext)] = struct{}{}
	}
	return policy
}

// Admit validates the upload and assigns it a collision-free stored name.
// The caller still has to write the bytes to the blob store.
func (p UploadPolicy) Admit(upload domain.Upload) (domain.Attachment, error) {
	if int64(len(upload.Data)) > p.maxBytes {
		return domain.Attachment{}, errors.ErrUploadTooLarge
	}

	ext := extensionOf(upload.OriginalName)
	_, image := p.allowedImages[ext]
	_, file := p.allowedFiles[ext]
	if ext == "" || (!image && !file) {
		return domain.Attachment{}, errors.ErrUploadForbiddenType
	}

	if image {
		detected := mimetype.Detect(upload.Data)
		if !strings.HasPrefix(detected.String(), "image/") {
			return domain.Attachment{}, errors.ErrUploadForbiddenType
		}
	}

	return domain.Attachment{
		StoredName:   uuid.New().String() + "." + ext,
		OriginalName: upload.OriginalName,
	}, nil
}

// IsImage reports whether a stored or original name carries an image
// extension under this policy.
func (p UploadPolicy) IsImage(name string) bool {
	_, ok := p.allowedImages[extensionOf(name)]
	return ok
}

func extensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
