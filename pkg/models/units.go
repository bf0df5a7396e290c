package models

// AttachmentRefKind distinguishes refs that already point at a content item
// from refs that point at a content version and need translation first.
type AttachmentRefKind string

const (
	AttachmentRefDirect  AttachmentRefKind = "direct"
	AttachmentRefVersion AttachmentRefKind = "version"
)

// AttachmentRef is a reference to attached content collected from the feed
// exports. Version refs are translated to their content document before use;
// when no translation exists the raw ID is kept as-is.
type AttachmentRef struct {
	Kind AttachmentRefKind `json:"kind"`
	ID   string            `json:"id"`
}

// FileUnit is one parent record with every document version attached to it.
// One note is created per unit.
type FileUnit struct {
	ParentID    string           `json:"parent_id"`
	HubSpotID   string           `json:"hubspot_id,omitempty"`
	ObjectName  string           `json:"object_name"`
	Versions    []ContentVersion `json:"versions"`
	DocumentIDs []string         `json:"document_ids"`
}

// FeedPost is a feed item with its comments (ascending by CreatedDate) and
// the deduplicated union of its attachment document IDs, refs already
// resolved. CommentAttachments keys by comment ID.
type FeedPost struct {
	Item               FeedItem            `json:"item"`
	Comments           []FeedComment       `json:"comments"`
	Attachments        []string            `json:"attachments,omitempty"`
	CommentAttachments map[string][]string `json:"comment_attachments,omitempty"`
}

// ChatterUnit is one parent record with its feed posts in ascending
// CreatedDate order. One note is created per post.
type ChatterUnit struct {
	ParentID   string     `json:"parent_id"`
	HubSpotID  string     `json:"hubspot_id,omitempty"`
	ObjectName string     `json:"object_name"`
	Posts      []FeedPost `json:"posts"`
}

// ObjectMapping maps a 3-character Salesforce ID prefix to a HubSpot object.
type ObjectMapping struct {
	Prefix         string `json:"prefix" validate:"required,len=3"`
	ObjectName     string `json:"object_name" validate:"required"`
	SearchProperty string `json:"search_property" validate:"required"`
}
