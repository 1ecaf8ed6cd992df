package convert

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennine-megagames/backend/internal/models"
)

type memBlobs struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	m.objects[key] = data
	m.types[key] = contentType
	return key, nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

type fakeConverter struct {
	fail   bool
	output []byte
}

func (f *fakeConverter) ConvertToPDF(_ context.Context, _ []byte, _ string) ([]byte, error) {
	if f.fail {
		return nil, ErrConversion
	}
	return f.output, nil
}

func TestToPDF_ConvertsWordAttachment(t *testing.T) {
	blobs := newMemBlobs()
	blobs.objects["docs/brief.docx"] = []byte("word bytes")
	svc := NewAttachments(blobs, &fakeConverter{output: []byte("%PDF-1.4")}, nil)

	att := models.Attachment{Key: "docs/brief.docx", Filename: "brief.docx", ContentType: models.ContentTypeDocx}
	got, changed, err := svc.ToPDF(context.Background(), att, "docs/brief-converted.pdf")

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "docs/brief-converted.pdf", got.Key)
	assert.Equal(t, "brief.pdf", got.Filename)
	assert.Equal(t, models.ContentTypePDF, got.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), blobs.objects["docs/brief-converted.pdf"])
	// Original is removed once the PDF is safely stored.
	assert.NotContains(t, blobs.objects, "docs/brief.docx")
}

func TestToPDF_IdempotentOnPDF(t *testing.T) {
	blobs := newMemBlobs()
	blobs.objects["docs/brief.pdf"] = []byte("%PDF-1.4")
	svc := NewAttachments(blobs, &fakeConverter{fail: true}, nil)

	att := models.Attachment{Key: "docs/brief.pdf", Filename: "brief.pdf", ContentType: models.ContentTypePDF}
	got, changed, err := svc.ToPDF(context.Background(), att, "docs/unused")

	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, att, got)
	assert.Contains(t, blobs.objects, "docs/brief.pdf")
}

func TestToPDF_NoAttachmentNoOp(t *testing.T) {
	svc := NewAttachments(newMemBlobs(), &fakeConverter{fail: true}, nil)

	got, changed, err := svc.ToPDF(context.Background(), models.Attachment{}, "docs/unused")

	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, got.Attached())
}

func TestToPDF_FailureLeavesOriginal(t *testing.T) {
	blobs := newMemBlobs()
	blobs.objects["docs/brief.docx"] = []byte("word bytes")
	svc := NewAttachments(blobs, &fakeConverter{fail: true}, nil)

	att := models.Attachment{Key: "docs/brief.docx", Filename: "brief.docx", ContentType: models.ContentTypeDocx}
	got, changed, err := svc.ToPDF(context.Background(), att, "docs/brief-converted.pdf")

	require.ErrorIs(t, err, ErrConversion)
	assert.False(t, changed)
	assert.Equal(t, att, got)
	assert.Equal(t, []byte("word bytes"), blobs.objects["docs/brief.docx"])
	assert.NotContains(t, blobs.objects, "docs/brief-converted.pdf")
}
