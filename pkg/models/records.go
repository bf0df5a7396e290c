package models

// Salesforce export rows as they appear in the CSV files. Column names are
// fixed by the Salesforce export format, not by us.

// ContentDocumentLink joins a document to the record it is attached to.
type ContentDocumentLink struct {
	ID                string `json:"id"`
	LinkedEntityID    string `json:"linked_entity_id"`
	ContentDocumentID string `json:"content_document_id"`
}

// ContentVersion is a single version of a document. VersionData holds the
// base64 payload, either inline from the CSV or backfilled from the export
// folder.
type ContentVersion struct {
	ID                string `json:"id"`
	ContentDocumentID string `json:"content_document_id"`
	Title             string `json:"title"`
	PathOnClient      string `json:"path_on_client"`
	VersionData       string `json:"-"`
}

// FeedItem is a Chatter post on a parent record.
type FeedItem struct {
	ID              string `json:"id"`
	ParentID        string `json:"parent_id"`
	Body            string `json:"body"`
	CreatedDate     string `json:"created_date"`
	CreatedByID     string `json:"created_by_id"`
	Type            string `json:"type"`
	RelatedRecordID string `json:"related_record_id,omitempty"`
}

// FeedComment is a comment under a feed item.
type FeedComment struct {
	ID              string `json:"id"`
	FeedItemID      string `json:"feed_item_id"`
	CommentBody     string `json:"comment_body"`
	CreatedDate     string `json:"created_date"`
	CreatedByID     string `json:"created_by_id"`
	RelatedRecordID string `json:"related_record_id,omitempty"`
}

// User maps a Salesforce user ID to a display name.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FeedAttachment links a feed entity to an attached record.
type FeedAttachment struct {
	FeedEntityID string `json:"feed_entity_id"`
	RecordID     string `json:"record_id"`
	Type         string `json:"type"`
}
