// Package migrator executes migration units against HubSpot: it uploads
// file attachments, renders and creates notes, and reports a per-unit
// outcome for the audit trail.
package migrator

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/hubspot"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Destination is the slice of the HubSpot service the executors use.
type Destination interface {
	FileByPath(ctx context.Context, path string) (*hubspot.RemoteFile, error)
	UploadBase64(ctx context.Context, base64Data, fileName string) (string, error)
	CreateNote(ctx context.Context, recordID, objectType, body string, attachmentIDs []string, timestamp time.Time) error
}

// UploadFileName builds the destination file name for a content version.
// The version ID prefixes the name so reruns find the same file, and the
// extension is lowercased.
func UploadFileName(version models.ContentVersion) string {
	base := version.PathOnClient
	name, ext := base, ""
	if i := strings.LastIndex(base, "."); i >= 0 {
		name = base[:i]
		ext = strings.ToLower(base[i:])
	}
	return version.ID + "_" + name + ext
}

// ensureFile uploads a content version unless a file already exists at its
// destination path, in which case the existing file's ID is reused. The
// second return reports whether a fresh upload happened, so audit counts
// exclude reruns.
func ensureFile(ctx context.Context, dest Destination, logger ectologger.Logger, version models.ContentVersion) (string, bool, error) {
	fileName := UploadFileName(version)

	existing, err := dest.FileByPath(ctx, hubspot.UploadPath(fileName))
	if err != nil {
		return "", false, err
	}
	if existing != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"file_name": fileName,
			"file_id":   existing.ID,
		}).Debug("file already uploaded, reusing")
		return existing.ID, false, nil
	}

	fileID, err := dest.UploadBase64(ctx, version.VersionData, fileName)
	if err != nil {
		return "", false, err
	}
	return fileID, true, nil
}
