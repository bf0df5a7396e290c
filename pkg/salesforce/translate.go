package salesforce

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Translator resolves content version IDs (068) to their content document
// IDs (069). Built once per run from the ContentVersion export.
type Translator struct {
	versionToDocument map[string]string
	logger            ectologger.Logger
}

func NewTranslator(versions []models.ContentVersion, logger ectologger.Logger) *Translator {
	m := make(map[string]string, len(versions))
	for _, v := range versions {
		if v.ID == "" || v.ContentDocumentID == "" {
			continue
		}
		m[v.ID] = v.ContentDocumentID
	}
	return &Translator{versionToDocument: m, logger: logger}
}

// Resolve returns the content document ID for an attachment ref. Direct refs
// pass through. Version refs without a known document keep the raw ID so the
// record still carries a trace of the attachment.
func (t *Translator) Resolve(ctx context.Context, ref models.AttachmentRef) string {
	if ref.Kind == models.AttachmentRefDirect {
		return ref.ID
	}
	if doc, ok := t.versionToDocument[ref.ID]; ok {
		return doc
	}
	t.logger.WithContext(ctx).WithFields(map[string]any{
		"version_id": ref.ID,
	}).Warn("no content document found for version reference, keeping raw ID")
	return ref.ID
}

// ResolveRelatedRecord handles the RelatedRecordId column on comments.
// Version IDs translate, document IDs pass through, anything else is not an
// attachment and is dropped.
func (t *Translator) ResolveRelatedRecord(ctx context.Context, id string) (string, bool) {
	switch Prefix(id) {
	case PrefixContentVersion:
		return t.Resolve(ctx, models.AttachmentRef{Kind: models.AttachmentRefVersion, ID: id}), true
	case PrefixContentDocument:
		return id, true
	default:
		return "", false
	}
}
