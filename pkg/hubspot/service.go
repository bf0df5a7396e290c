package hubspot

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/auth"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	// DefaultBaseURL is the HubSpot API host
	DefaultBaseURL = "https://api.hubapi.com"

	// SearchBatchLimit is the maximum number of values in one IN search
	SearchBatchLimit = 100

	// uploadFolderPath is the destination folder for migrated files
	uploadFolderPath = "salesforce"
)

// Service wraps the HubSpot REST APIs used by migrations.
type Service struct {
	baseURL string
	client  *httpclient.Client
	tokens  auth.TokenProvider
	logger  ectologger.Logger
}

func NewService(baseURL string, client *httpclient.Client, tokens auth.TokenProvider, logger ectologger.Logger) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Service{
		baseURL: baseURL,
		client:  client,
		tokens:  tokens,
		logger:  logger,
	}
}

func (s *Service) authHeaders(ctx context.Context) (map[string]string, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// AccountDetails fetches the portal identity; also serves as a token check.
func (s *Service) AccountDetails(ctx context.Context) (*models.AccountDetails, error) {
	ctx, span := tracing.StartSpan(ctx, "HubSpotService.AccountDetails")
	defer span.End()

	headers, err := s.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Get(ctx, s.baseURL+"/account-info/v3/details", headers)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("invalid destination token: status %d", resp.StatusCode)
	}

	var body struct {
		PortalID int64  `json:"portalId"`
		UIDomain string `json:"uiDomain"`
		TimeZone string `json:"timeZone"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to parse account details: %w", err)
	}

	return &models.AccountDetails{
		PortalID: body.PortalID,
		UIDomain: body.UIDomain,
		TimeZone: body.TimeZone,
	}, nil
}

type searchRecord struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

type searchResult struct {
	Results []searchRecord `json:"results"`
}

// SearchByProperty finds records whose property matches any of the values.
// The batch must not exceed SearchBatchLimit; callers page and pace batches
// themselves.
func (s *Service) SearchByProperty(ctx context.Context, objectType, propertyName string, values []string) (map[string]string, error) {
	ctx, span := tracing.StartSpan(ctx, "HubSpotService.SearchByProperty")
	defer span.End()

	if len(values) > SearchBatchLimit {
		return nil, fmt.Errorf("search batch of %d exceeds limit %d", len(values), SearchBatchLimit)
	}

	headers, err := s.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	request := map[string]any{
		"filterGroups": []map[string]any{{
			"filters": []map[string]any{{
				"propertyName": propertyName,
				"operator":     "IN",
				"values":       values,
			}},
		}},
		"properties": []string{"hs_object_id", propertyName},
		"limit":      SearchBatchLimit,
	}

	endpoint := fmt.Sprintf("%s/crm/v3/objects/%s/search", s.baseURL, objectType)
	resp, err := s.client.PostJSON(ctx, endpoint, request, headers)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("search failed for %s: status %d", objectType, resp.StatusCode)
	}

	var result searchResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search result: %w", err)
	}

	found := make(map[string]string, len(result.Results))
	for _, record := range result.Results {
		if sourceID, ok := record.Properties[propertyName]; ok && sourceID != "" {
			found[sourceID] = record.ID
		}
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"object_type": objectType,
		"requested":   len(values),
		"found":       len(found),
	}).Debug("destination records searched")
	return found, nil
}

// RemoteFile is the destination view of an uploaded file.
type RemoteFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}

// FileByPath returns the file at the given destination path, or nil when it
// does not exist. This is the idempotency check before uploads.
func (s *Service) FileByPath(ctx context.Context, path string) (*RemoteFile, error) {
	ctx, span := tracing.StartSpan(ctx, "HubSpotService.FileByPath")
	defer span.End()

	headers, err := s.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/files/v3/files/stat/%s", s.baseURL, url.QueryEscape(path))
	resp, err := s.client.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		// Stat answers 404 for unknown paths; anything else also means
		// "treat as absent" and let the upload surface real failures.
		return nil, nil
	}

	var body struct {
		File *RemoteFile `json:"file"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to parse file stat: %w", err)
	}
	return body.File, nil
}

// UploadBase64 decodes a base64 payload and uploads it under the migration
// folder with private access. Returns the new file ID.
func (s *Service) UploadBase64(ctx context.Context, base64Data, fileName string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "HubSpotService.UploadBase64")
	defer span.End()

	data, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode file payload: %w", err)
	}

	headers, err := s.authHeaders(ctx)
	if err != nil {
		return "", err
	}

	resp, err := s.client.PostMultipart(ctx, s.baseURL+"/files/v3/files", httpclient.MultipartFile{
		FieldName: "file",
		FileName:  fileName,
		Data:      data,
	}, map[string]string{
		"options":    `{"access": "PRIVATE"}`,
		"folderPath": uploadFolderPath,
	}, headers)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("file upload failed: status %d", resp.StatusCode)
	}

	var body struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}

	metrics.FilesUploaded.Inc()
	s.logger.WithContext(ctx).WithField("file_name", fileName).Debug("file uploaded")
	return body.ID.String(), nil
}

// UploadPath returns the destination path a file name uploads to.
func UploadPath(fileName string) string {
	return uploadFolderPath + "/" + fileName
}

// CreateNote creates a note on a record. attachmentIDs joins with ";" and is
// omitted entirely when empty. timestamp is the note's hs_timestamp; the
// zero value means now.
func (s *Service) CreateNote(ctx context.Context, recordID, objectType, body string, attachmentIDs []string, timestamp time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "HubSpotService.CreateNote")
	defer span.End()

	headers, err := s.authHeaders(ctx)
	if err != nil {
		return err
	}

	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	properties := map[string]any{
		"hs_note_body": body,
		"hs_timestamp": strconv.FormatInt(timestamp.UnixMilli(), 10),
	}
	if len(attachmentIDs) > 0 {
		properties["hs_attachment_ids"] = strings.Join(attachmentIDs, ";")
	}

	request := map[string]any{
		"properties": properties,
		"associations": []map[string]any{{
			"to": map[string]any{"id": recordID},
			"types": []map[string]any{{
				"associationCategory": "HUBSPOT_DEFINED",
				"associationTypeId":   NoteAssociationTypeID(objectType),
			}},
		}},
	}

	resp, err := s.client.PostJSON(ctx, s.baseURL+"/crm/v3/objects/notes", request, headers)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("note creation failed: status %d - %s", resp.StatusCode, string(resp.Body))
	}

	metrics.NotesCreated.Inc()
	s.logger.WithContext(ctx).WithField("record_id", recordID).Debug("note created")
	return nil
}

// ListObjects returns the selectable target objects: the standard set merged
// with the portal's custom schemas.
func (s *Service) ListObjects(ctx context.Context) ([]models.TargetObject, error) {
	ctx, span := tracing.StartSpan(ctx, "HubSpotService.ListObjects")
	defer span.End()

	objects := []models.TargetObject{
		{Name: "contacts", Label: "Contacts", TypeID: ObjectTypeID("contacts"), Standard: true},
		{Name: "companies", Label: "Companies", TypeID: ObjectTypeID("companies"), Standard: true},
		{Name: "deals", Label: "Deals", TypeID: ObjectTypeID("deals"), Standard: true},
		{Name: "tickets", Label: "Tickets", TypeID: ObjectTypeID("tickets"), Standard: true},
	}

	headers, err := s.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Get(ctx, s.baseURL+"/crm/v3/schemas", headers)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to list custom schemas")
		return objects, nil
	}
	if !resp.IsSuccess() {
		s.logger.WithContext(ctx).WithField("status", resp.StatusCode).Warn("custom schema listing rejected")
		return objects, nil
	}

	var body struct {
		Results []struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Labels struct {
				Singular string `json:"singular"`
				Plural   string `json:"plural"`
			} `json:"labels"`
		} `json:"results"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to parse schema listing: %w", err)
	}

	for _, schema := range body.Results {
		switch schema.ID {
		case "contacts", "companies", "deals", "tickets":
			continue
		}
		objects = append(objects, models.TargetObject{
			Name:   schema.Name,
			Label:  schema.Labels.Plural,
			TypeID: schema.ID,
		})
	}

	return objects, nil
}
