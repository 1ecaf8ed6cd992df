// Package bundle assembles per-player ZIP archives of briefing material:
// role brief, team brief, event rulebook, additional documents and the
// player cast list PDF. Archives are staged in a temp file so a large bundle
// never lives entirely in memory twice.
package bundle

import (
	"archive/zip"
	"context"
	"fmt"
	"os"

	"github.com/pennine-megagames/backend/internal/models"
)

// BlobGetter fetches stored document content by key.
type BlobGetter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Input names everything that can end up in a player bundle. Team and Role
// may be nil for unassigned players; unattached documents are skipped.
type Input struct {
	Event     *models.Event
	Team      *models.Team
	Role      *models.Role
	Documents []models.EventDocument
	CastPDF   []byte
}

// Bundle is a finished archive staged on disk. Callers must Cleanup once
// the content has been served.
type Bundle struct {
	Path     string
	Filename string
	Entries  int
}

// Cleanup removes the staged archive file.
func (b *Bundle) Cleanup() error {
	return os.Remove(b.Path)
}

// Builder assembles bundles from blob-store content.
type Builder struct {
	blobs BlobGetter
}

// NewBuilder creates a bundle builder over the blob store.
func NewBuilder(blobs BlobGetter) *Builder {
	return &Builder{blobs: blobs}
}

// teamSegment is the prefix applied to every member name, and part of the
// archive filename. Empty when the player has no team.
func teamSegment(team *models.Team) string {
	if team == nil || team.Name == "" {
		return ""
	}
	return fmt.Sprintf("team %s ", team.Name)
}

// Build writes the archive to a temp file and returns it. The temp file is
// removed on every error path.
func (b *Builder) Build(ctx context.Context, in Input) (*Bundle, error) {
	segment := teamSegment(in.Team)

	tmp, err := os.CreateTemp("", "bundle-*.zip")
	if err != nil {
		return nil, fmt.Errorf("stage bundle: %w", err)
	}
	bundle := &Bundle{
		Path:     tmp.Name(),
		Filename: fmt.Sprintf("%s %s.zip", in.Event.FormattedName(), segment),
	}

	zw := zip.NewWriter(tmp)
	err = b.addMembers(ctx, zw, in, segment, bundle)
	if err == nil {
		err = zw.Close()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	return bundle, nil
}

func (b *Builder) addMembers(ctx context.Context, zw *zip.Writer, in Input, segment string, bundle *Bundle) error {
	if in.Role != nil && in.Role.Brief.Attached() {
		name := segment + "role brief" + in.Role.Brief.Ext()
		if err := b.addBlob(ctx, zw, name, in.Role.Brief.Key); err != nil {
			return err
		}
		bundle.Entries++
	}
	if in.Team != nil && in.Team.Brief.Attached() {
		name := segment + "team brief" + in.Team.Brief.Ext()
		if err := b.addBlob(ctx, zw, name, in.Team.Brief.Key); err != nil {
			return err
		}
		bundle.Entries++
	}
	if in.Event.Rulebook.Attached() {
		name := segment + "rulebook" + in.Event.Rulebook.Ext()
		if err := b.addBlob(ctx, zw, name, in.Event.Rulebook.Key); err != nil {
			return err
		}
		bundle.Entries++
	}
	for _, doc := range in.Documents {
		if !doc.Attachment.Attached() {
			continue
		}
		if err := b.addBlob(ctx, zw, segment+doc.Attachment.Filename, doc.Attachment.Key); err != nil {
			return err
		}
		bundle.Entries++
	}
	if len(in.CastPDF) > 0 {
		if err := writeEntry(zw, segment+"cast.pdf", in.CastPDF); err != nil {
			return err
		}
		bundle.Entries++
	}
	return nil
}

func (b *Builder) addBlob(ctx context.Context, zw *zip.Writer, name, key string) error {
	data, err := b.blobs.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	return writeEntry(zw, name, data)
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
