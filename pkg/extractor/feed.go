package extractor

import (
	"context"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/salesforce"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Feed attachment types that carry migratable content.
var contentAttachmentTypes = []string{"Content", "InlineImage"}

// FeedItemsByPrefix buckets feed items by the prefix of their parent record,
// keeping only mapped prefixes.
func (e *Extractor) FeedItemsByPrefix(ctx context.Context, items []models.FeedItem, mappings salesforce.MappingSet) map[string][]models.FeedItem {
	ctx, span := tracing.StartSpan(ctx, "Extractor.FeedItemsByPrefix")
	defer span.End()

	byPrefix := make(map[string][]models.FeedItem)
	for _, item := range items {
		if _, ok := mappings.Match(item.ParentID); !ok {
			continue
		}
		prefix := salesforce.Prefix(item.ParentID)
		byPrefix[prefix] = append(byPrefix[prefix], item)
	}

	e.logger.WithContext(ctx).WithField("prefixes", len(byPrefix)).Info("feed items extracted")
	return byPrefix
}

// TargetFeedItemIDs collects the IDs of every bucketed feed item.
func TargetFeedItemIDs(itemsByPrefix map[string][]models.FeedItem) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, items := range itemsByPrefix {
		for _, item := range items {
			ids[item.ID] = struct{}{}
		}
	}
	return ids
}

// CommentsByItem groups comments under their feed item, restricted to target
// items.
func (e *Extractor) CommentsByItem(ctx context.Context, comments []models.FeedComment, targetItems map[string]struct{}) map[string][]models.FeedComment {
	ctx, span := tracing.StartSpan(ctx, "Extractor.CommentsByItem")
	defer span.End()

	byItem := make(map[string][]models.FeedComment)
	for _, comment := range comments {
		if _, ok := targetItems[comment.FeedItemID]; !ok {
			continue
		}
		byItem[comment.FeedItemID] = append(byItem[comment.FeedItemID], comment)
	}

	e.logger.WithContext(ctx).WithField("items_with_comments", len(byItem)).Info("feed comments grouped")
	return byItem
}

// AttachmentRefs unions attachment references per feed entity from two
// sources: document links pointing at feed items or comments, and
// FeedAttachment rows of a content-bearing type. Link refs are already
// content item IDs; FeedAttachment record IDs starting with the version
// prefix need translation.
func (e *Extractor) AttachmentRefs(ctx context.Context, links []models.ContentDocumentLink, feedAttachments []models.FeedAttachment, targetItems map[string]struct{}) map[string][]models.AttachmentRef {
	ctx, span := tracing.StartSpan(ctx, "Extractor.AttachmentRefs")
	defer span.End()

	refs := make(map[string][]models.AttachmentRef)
	for _, link := range links {
		prefix := salesforce.Prefix(link.LinkedEntityID)
		if prefix == salesforce.PrefixFeedItem {
			if _, ok := targetItems[link.LinkedEntityID]; !ok {
				continue
			}
		} else if prefix != salesforce.PrefixFeedComment {
			continue
		}
		refs[link.LinkedEntityID] = append(refs[link.LinkedEntityID], models.AttachmentRef{
			Kind: models.AttachmentRefDirect,
			ID:   link.ContentDocumentID,
		})
	}

	for _, attachment := range feedAttachments {
		if !ectolinq.Contains(contentAttachmentTypes, attachment.Type) {
			continue
		}
		if _, ok := targetItems[attachment.FeedEntityID]; !ok {
			continue
		}
		kind := models.AttachmentRefDirect
		if salesforce.Prefix(attachment.RecordID) == salesforce.PrefixContentVersion {
			kind = models.AttachmentRefVersion
		}
		refs[attachment.FeedEntityID] = append(refs[attachment.FeedEntityID], models.AttachmentRef{
			Kind: kind,
			ID:   attachment.RecordID,
		})
	}

	e.logger.WithContext(ctx).WithField("entities", len(refs)).Info("attachment refs collected")
	return refs
}

// resolveRefs translates refs to content item IDs and deduplicates them,
// preserving first-seen order.
func resolveRefs(ctx context.Context, translator *salesforce.Translator, refs []models.AttachmentRef) []string {
	var ids []string
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		id := translator.Resolve(ctx, ref)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ChatterUnits assembles one unit per parent record: its posts oldest first,
// each post with sorted comments and the deduplicated union of its
// attachments.
func (e *Extractor) ChatterUnits(
	ctx context.Context,
	itemsByPrefix map[string][]models.FeedItem,
	commentsByItem map[string][]models.FeedComment,
	refsByEntity map[string][]models.AttachmentRef,
	translator *salesforce.Translator,
	mappings salesforce.MappingSet,
) map[string][]models.ChatterUnit {
	ctx, span := tracing.StartSpan(ctx, "Extractor.ChatterUnits")
	defer span.End()

	unitsByPrefix := make(map[string][]models.ChatterUnit)
	for prefix, items := range itemsByPrefix {
		mapping, ok := mappings[prefix]
		if !ok {
			continue
		}

		postsByParent := make(map[string][]models.FeedPost)
		parentOrder := make([]string, 0)
		for _, item := range items {
			comments := append([]models.FeedComment(nil), commentsByItem[item.ID]...)
			sortComments(comments)

			post := models.FeedPost{
				Item:        item,
				Comments:    comments,
				Attachments: resolveRefs(ctx, translator, refsByEntity[item.ID]),
			}

			for _, comment := range comments {
				refs := append([]models.AttachmentRef(nil), refsByEntity[comment.ID]...)
				if comment.RelatedRecordID != "" {
					if id, ok := translator.ResolveRelatedRecord(ctx, comment.RelatedRecordID); ok {
						refs = append(refs, models.AttachmentRef{Kind: models.AttachmentRefDirect, ID: id})
					} else {
						e.logger.WithContext(ctx).WithFields(map[string]any{
							"comment_id":        comment.ID,
							"related_record_id": comment.RelatedRecordID,
						}).Warn("unsupported related record on comment")
					}
				}
				if ids := resolveRefs(ctx, translator, refs); len(ids) > 0 {
					if post.CommentAttachments == nil {
						post.CommentAttachments = make(map[string][]string)
					}
					post.CommentAttachments[comment.ID] = ids
				}
			}

			if _, ok := postsByParent[item.ParentID]; !ok {
				parentOrder = append(parentOrder, item.ParentID)
			}
			postsByParent[item.ParentID] = append(postsByParent[item.ParentID], post)
		}

		units := make([]models.ChatterUnit, 0, len(postsByParent))
		for _, parentID := range parentOrder {
			posts := postsByParent[parentID]
			sortFeedItems(posts)
			units = append(units, models.ChatterUnit{
				ParentID:   parentID,
				ObjectName: mapping.ObjectName,
				Posts:      posts,
			})
		}
		if len(units) > 0 {
			unitsByPrefix[prefix] = units
		}
	}

	total := 0
	for _, units := range unitsByPrefix {
		total += len(units)
	}
	e.logger.WithContext(ctx).WithField("units", total).Info("chatter units grouped")
	return unitsByPrefix
}
