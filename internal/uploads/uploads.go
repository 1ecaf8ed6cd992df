// Package uploads reads and validates multipart document uploads shared by
// the event, team and role handlers.
package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pennine-megagames/backend/pkg/storage"
)

// File is a validated upload ready to store.
type File struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ReadBrief reads the "file" form field and accepts PDF and Word documents.
func ReadBrief(c *gin.Context) (*File, error) {
	return read(c, storage.ValidBriefType, "only PDF and Word documents are allowed")
}

// ReadImage reads the "file" form field and accepts images.
func ReadImage(c *gin.Context) (*File, error) {
	return read(c, storage.ValidImageType, "only image files are allowed")
}

func read(c *gin.Context, valid func(string) bool, typeMsg string) (*File, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing file (form field: file)")
	}
	if header.Size > storage.MaxDocumentSize {
		return nil, fmt.Errorf("file size exceeds %dMB limit", storage.MaxDocumentSize/(1024*1024))
	}
	contentType := header.Header.Get("Content-Type")
	if !valid(contentType) {
		return nil, fmt.Errorf("invalid file type: %s", typeMsg)
	}
	data, err := readAll(header)
	if err != nil {
		return nil, fmt.Errorf("failed to read file")
	}
	return &File{
		Data:        data,
		Filename:    strings.TrimSpace(header.Filename),
		ContentType: contentType,
	}, nil
}

func readAll(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
