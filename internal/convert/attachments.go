package convert

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pennine-megagames/backend/internal/models"
)

// BlobStore is the slice of the blob store this package needs.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Attachments converts stored Word attachments to PDF in place. The PDF is
// written to a fresh blob key before the record is switched over, so a
// failure at any point leaves the original attachment servable.
type Attachments struct {
	blobs  BlobStore
	conv   Converter
	logger *zap.Logger
}

// NewAttachments creates the attachment conversion service.
func NewAttachments(blobs BlobStore, conv Converter, logger *zap.Logger) *Attachments {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Attachments{blobs: blobs, conv: conv, logger: logger}
}

// ToPDF converts a Word attachment to PDF and returns the replacement
// reference. Non-Word attachments, PDFs included, come back unchanged with
// changed=false, which makes repeat conversion a no-op. newKey must be an
// unused blob key for the converted result.
func (a *Attachments) ToPDF(ctx context.Context, att models.Attachment, newKey string) (result models.Attachment, changed bool, err error) {
	if !att.IsWord() {
		return att, false, nil
	}

	format := FormatDocx
	if att.ContentType == models.ContentTypeDoc {
		format = FormatDoc
	}

	data, err := a.blobs.Get(ctx, att.Key)
	if err != nil {
		return att, false, fmt.Errorf("fetch %s: %w", att.Key, err)
	}

	pdf, err := a.conv.ConvertToPDF(ctx, data, format)
	if err != nil {
		return att, false, err
	}

	if _, err := a.blobs.Put(ctx, newKey, pdf, models.ContentTypePDF); err != nil {
		return att, false, fmt.Errorf("store converted %s: %w", newKey, err)
	}

	// Only now is the original expendable. Deleting it is best effort; an
	// orphaned blob is preferable to a dangling reference.
	if err := a.blobs.Delete(ctx, att.Key); err != nil {
		a.logger.Warn("delete original after conversion failed",
			zap.String("key", att.Key), zap.Error(err))
	}

	return models.Attachment{
		Key:         newKey,
		Filename:    pdfFilename(att.Filename),
		ContentType: models.ContentTypePDF,
	}, true, nil
}

func pdfFilename(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name + ".pdf"
}
