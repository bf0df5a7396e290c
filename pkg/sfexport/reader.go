package sfexport

import (
	"context"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Required columns per export file. The Salesforce export format fixes these
// names; a file missing one is rejected before any work starts.
var (
	linkColumns       = []string{"Id", "LinkedEntityId", "ContentDocumentId"}
	versionColumns    = []string{"Id", "ContentDocumentId", "Title", "PathOnClient", "VersionData"}
	feedItemColumns   = []string{"Id", "ParentId", "Body", "CreatedDate", "CreatedById", "Type", "RelatedRecordId"}
	commentColumns    = []string{"Id", "FeedItemId", "CommentBody", "CreatedDate", "CreatedById", "RelatedRecordId"}
	userColumns       = []string{"Id", "Name"}
	attachmentColumns = []string{"FeedEntityId", "RecordId", "Type"}
)

// Reader streams Salesforce CSV exports into domain records.
type Reader struct {
	logger ectologger.Logger
}

func NewReader(logger ectologger.Logger) *Reader {
	return &Reader{logger: logger}
}

type rowScanner struct {
	reader  *csv.Reader
	columns map[string]int
	file    *os.File
	path    string
}

func (s *rowScanner) close() {
	_ = s.file.Close()
}

func (s *rowScanner) get(row []string, column string) string {
	idx, ok := s.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// open reads the header row and verifies every required column is present.
func (r *Reader) open(path string, required []string) (*rowScanner, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file %s: %w", path, err)
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	for _, name := range required {
		if _, ok := columns[name]; !ok {
			_ = file.Close()
			return nil, fmt.Errorf("%s: missing required column %q", filepath.Base(path), name)
		}
	}

	return &rowScanner{reader: reader, columns: columns, file: file, path: path}, nil
}

// ValidateFilesExport checks the files-flow exports without reading rows.
func (r *Reader) ValidateFilesExport(ctx context.Context, linksPath, versionsPath string) error {
	ctx, span := tracing.StartSpan(ctx, "Reader.ValidateFilesExport")
	defer span.End()

	for _, check := range []struct {
		path    string
		columns []string
	}{
		{linksPath, linkColumns},
		{versionsPath, versionColumns},
	} {
		scanner, err := r.open(check.path, check.columns)
		if err != nil {
			return err
		}
		scanner.close()
	}
	return nil
}

// ValidateChatterExport checks the chatter-flow exports without reading rows.
func (r *Reader) ValidateChatterExport(ctx context.Context, feedPath, commentsPath string) error {
	ctx, span := tracing.StartSpan(ctx, "Reader.ValidateChatterExport")
	defer span.End()

	for _, check := range []struct {
		path    string
		columns []string
	}{
		{feedPath, feedItemColumns},
		{commentsPath, commentColumns},
	} {
		scanner, err := r.open(check.path, check.columns)
		if err != nil {
			return err
		}
		scanner.close()
	}
	return nil
}

// ReadLinks streams the ContentDocumentLink export. Rows with blank required
// cells are skipped, never fatal.
func (r *Reader) ReadLinks(ctx context.Context, path string) ([]models.ContentDocumentLink, error) {
	ctx, span := tracing.StartSpan(ctx, "Reader.ReadLinks")
	defer span.End()

	scanner, err := r.open(path, linkColumns)
	if err != nil {
		return nil, err
	}
	defer scanner.close()

	log := r.logger.WithContext(ctx).WithField("file", filepath.Base(path))

	var links []models.ContentDocumentLink
	rowNum := 1
	for {
		row, err := scanner.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row %d: %w", filepath.Base(path), rowNum, err)
		}
		rowNum++

		link := models.ContentDocumentLink{
			ID:                scanner.get(row, "Id"),
			LinkedEntityID:    scanner.get(row, "LinkedEntityId"),
			ContentDocumentID: scanner.get(row, "ContentDocumentId"),
		}
		if link.LinkedEntityID == "" || link.ContentDocumentID == "" {
			log.WithField("row", rowNum).Warn("skipping link row with blank required cell")
			continue
		}
		links = append(links, link)
	}

	log.WithField("count", len(links)).Info("content document links loaded")
	return links, nil
}

// ReadVersions streams the ContentVersion export. VersionData stays whatever
// the cell held; payload backfill happens in FileInfo.
func (r *Reader) ReadVersions(ctx context.Context, path string) ([]models.ContentVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "Reader.ReadVersions")
	defer span.End()

	scanner, err := r.open(path, versionColumns)
	if err != nil {
		return nil, err
	}
	defer scanner.close()

	log := r.logger.WithContext(ctx).WithField("file", filepath.Base(path))

	var versions []models.ContentVersion
	rowNum := 1
	for {
		row, err := scanner.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row %d: %w", filepath.Base(path), rowNum, err)
		}
		rowNum++

		version := models.ContentVersion{
			ID:                scanner.get(row, "Id"),
			ContentDocumentID: scanner.get(row, "ContentDocumentId"),
			Title:             scanner.get(row, "Title"),
			PathOnClient:      scanner.get(row, "PathOnClient"),
			VersionData:       scanner.get(row, "VersionData"),
		}
		if version.ID == "" || version.ContentDocumentID == "" {
			log.WithField("row", rowNum).Warn("skipping version row with blank required cell")
			continue
		}
		versions = append(versions, version)
	}

	log.WithField("count", len(versions)).Info("content versions loaded")
	return versions, nil
}

// FileInfo filters versions down to the wanted documents, normalizes the
// client path to its basename, and backfills missing payloads from the export
// folder (file named by version ID, base64-encoded). The last version row per
// document wins. Documents whose payload cannot be loaded are excluded.
func (r *Reader) FileInfo(ctx context.Context, versions []models.ContentVersion, filesDir string, wanted map[string]struct{}) map[string]models.ContentVersion {
	ctx, span := tracing.StartSpan(ctx, "Reader.FileInfo")
	defer span.End()

	log := r.logger.WithContext(ctx)

	info := make(map[string]models.ContentVersion)
	for _, v := range versions {
		if _, ok := wanted[v.ContentDocumentID]; !ok {
			continue
		}

		if v.VersionData == "" && filesDir != "" {
			payloadPath := filepath.Join(filesDir, v.ID)
			data, err := os.ReadFile(payloadPath)
			if err != nil {
				log.WithError(err).WithFields(map[string]any{
					"version_id": v.ID,
					"path":       payloadPath,
				}).Warn("failed to load version payload from export folder")
			} else {
				v.VersionData = base64.StdEncoding.EncodeToString(data)
			}
		}
		if v.VersionData == "" {
			log.WithField("version_id", v.ID).Warn("version has no payload, excluding document")
			continue
		}

		if idx := strings.LastIndex(v.PathOnClient, "/"); idx >= 0 {
			v.PathOnClient = v.PathOnClient[idx+1:]
		}

		info[v.ContentDocumentID] = v
	}

	log.WithFields(map[string]any{
		"wanted": len(wanted),
		"loaded": len(info),
	}).Info("file info resolved")
	return info
}

// ReadFeedItems streams the FeedItem export.
func (r *Reader) ReadFeedItems(ctx context.Context, path string) ([]models.FeedItem, error) {
	ctx, span := tracing.StartSpan(ctx, "Reader.ReadFeedItems")
	defer span.End()

	scanner, err := r.open(path, feedItemColumns)
	if err != nil {
		return nil, err
	}
	defer scanner.close()

	log := r.logger.WithContext(ctx).WithField("file", filepath.Base(path))

	var items []models.FeedItem
	rowNum := 1
	for {
		row, err := scanner.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row %d: %w", filepath.Base(path), rowNum, err)
		}
		rowNum++

		item := models.FeedItem{
			ID:              scanner.get(row, "Id"),
			ParentID:        scanner.get(row, "ParentId"),
			Body:            scanner.get(row, "Body"),
			CreatedDate:     scanner.get(row, "CreatedDate"),
			CreatedByID:     scanner.get(row, "CreatedById"),
			Type:            scanner.get(row, "Type"),
			RelatedRecordID: scanner.get(row, "RelatedRecordId"),
		}
		if item.ID == "" || item.ParentID == "" {
			log.WithField("row", rowNum).Warn("skipping feed item row with blank required cell")
			continue
		}
		items = append(items, item)
	}

	log.WithField("count", len(items)).Info("feed items loaded")
	return items, nil
}

// ReadComments streams the FeedComment export.
func (r *Reader) ReadComments(ctx context.Context, path string) ([]models.FeedComment, error) {
	ctx, span := tracing.StartSpan(ctx, "Reader.ReadComments")
	defer span.End()

	scanner, err := r.open(path, commentColumns)
	if err != nil {
		return nil, err
	}
	defer scanner.close()

	log := r.logger.WithContext(ctx).WithField("file", filepath.Base(path))

	var comments []models.FeedComment
	rowNum := 1
	for {
		row, err := scanner.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row %d: %w", filepath.Base(path), rowNum, err)
		}
		rowNum++

		comment := models.FeedComment{
			ID:              scanner.get(row, "Id"),
			FeedItemID:      scanner.get(row, "FeedItemId"),
			CommentBody:     scanner.get(row, "CommentBody"),
			CreatedDate:     scanner.get(row, "CreatedDate"),
			CreatedByID:     scanner.get(row, "CreatedById"),
			RelatedRecordID: scanner.get(row, "RelatedRecordId"),
		}
		if comment.ID == "" || comment.FeedItemID == "" {
			log.WithField("row", rowNum).Warn("skipping comment row with blank required cell")
			continue
		}
		comments = append(comments, comment)
	}

	log.WithField("count", len(comments)).Info("feed comments loaded")
	return comments, nil
}

// ReadUsers loads the User export into an ID to display name map.
func (r *Reader) ReadUsers(ctx context.Context, path string) (map[string]string, error) {
	ctx, span := tracing.StartSpan(ctx, "Reader.ReadUsers")
	defer span.End()

	scanner, err := r.open(path, userColumns)
	if err != nil {
		return nil, err
	}
	defer scanner.close()

	log := r.logger.WithContext(ctx).WithField("file", filepath.Base(path))

	users := make(map[string]string)
	rowNum := 1
	for {
		row, err := scanner.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row %d: %w", filepath.Base(path), rowNum, err)
		}
		rowNum++

		id := scanner.get(row, "Id")
		name := scanner.get(row, "Name")
		if id == "" || name == "" {
			continue
		}
		users[id] = name
	}

	log.WithField("count", len(users)).Info("users loaded")
	return users, nil
}

// ReadFeedAttachments streams the FeedAttachment export.
func (r *Reader) ReadFeedAttachments(ctx context.Context, path string) ([]models.FeedAttachment, error) {
	ctx, span := tracing.StartSpan(ctx, "Reader.ReadFeedAttachments")
	defer span.End()

	scanner, err := r.open(path, attachmentColumns)
	if err != nil {
		return nil, err
	}
	defer scanner.close()

	log := r.logger.WithContext(ctx).WithField("file", filepath.Base(path))

	var attachments []models.FeedAttachment
	rowNum := 1
	for {
		row, err := scanner.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row %d: %w", filepath.Base(path), rowNum, err)
		}
		rowNum++

		attachment := models.FeedAttachment{
			FeedEntityID: scanner.get(row, "FeedEntityId"),
			RecordID:     scanner.get(row, "RecordId"),
			Type:         scanner.get(row, "Type"),
		}
		if attachment.FeedEntityID == "" || attachment.RecordID == "" {
			log.WithField("row", rowNum).Warn("skipping feed attachment row with blank required cell")
			continue
		}
		attachments = append(attachments, attachment)
	}

	log.WithField("count", len(attachments)).Info("feed attachments loaded")
	return attachments, nil
}
