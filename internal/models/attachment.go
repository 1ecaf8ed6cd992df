package models

import "path"

// Word processing and PDF MIME types accepted for brief-style attachments.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDoc  = "application/msword"
	ContentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Attachment is a reference to a stored document: the blob key plus the
// original filename and content type. A zero Key means nothing is attached.
type Attachment struct {
	Key         string `json:"key,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// Attached reports whether a blob is present.
func (a Attachment) Attached() bool { return a.Key != "" }

// Ext returns the filename extension including the dot, e.g. ".pdf".
func (a Attachment) Ext() string { return path.Ext(a.Filename) }

// IsWord reports whether the attachment is a Word document eligible for
// conversion to PDF. Already-converted PDFs return false, which makes
// conversion a no-op for them.
func (a Attachment) IsWord() bool {
	return a.Attached() && (a.ContentType == ContentTypeDoc || a.ContentType == ContentTypeDocx)
}
