// Package convert turns Word documents and rendered HTML into PDF. The
// conversion itself is delegated to an external pandoc binary; everything in
// this package is careful never to touch a stored original until the
// converted result exists.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ErrConversion wraps any converter failure; the original document is always
// left intact when it is returned.
var ErrConversion = errors.New("document conversion failed")

// Source formats understood by the converter.
const (
	FormatDocx = "docx"
	FormatDoc  = "doc"
	FormatHTML = "html"
)

// Converter converts a document to PDF.
type Converter interface {
	ConvertToPDF(ctx context.Context, data []byte, sourceFormat string) ([]byte, error)
}

// PandocConverter shells out to pandoc for conversion, working entirely in a
// scratch directory that is removed afterwards.
type PandocConverter struct {
	path    string
	timeout time.Duration
}

// NewPandocConverter creates a converter using the pandoc binary at path.
func NewPandocConverter(path string, timeout time.Duration) *PandocConverter {
	if path == "" {
		path = "pandoc"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &PandocConverter{path: path, timeout: timeout}
}

// ConvertToPDF converts data in sourceFormat to PDF bytes.
func (p *PandocConverter) ConvertToPDF(ctx context.Context, data []byte, sourceFormat string) ([]byte, error) {
	switch sourceFormat {
	case FormatDocx, FormatDoc, FormatHTML:
	default:
		return nil, fmt.Errorf("%w: unsupported source format %q", ErrConversion, sourceFormat)
	}

	dir, err := os.MkdirTemp("", "convert-*")
	if err != nil {
		return nil, fmt.Errorf("%w: scratch dir: %v", ErrConversion, err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input."+sourceFormat)
	out := filepath.Join(dir, "output.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write input: %v", ErrConversion, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.path, "-f", sourceFormat, in, "-o", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: pandoc: %v: %s", ErrConversion, err, output)
	}

	pdf, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrConversion, err)
	}
	return pdf, nil
}
