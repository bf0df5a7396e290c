package extractor

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/salesforce"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Extractor turns raw export rows into processable units grouped by mapped
// prefix.
type Extractor struct {
	logger ectologger.Logger
}

func New(logger ectologger.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// TargetLinks buckets document links by the prefix of their linked record,
// keeping only mapped prefixes.
func (e *Extractor) TargetLinks(ctx context.Context, links []models.ContentDocumentLink, mappings salesforce.MappingSet) map[string][]models.ContentDocumentLink {
	ctx, span := tracing.StartSpan(ctx, "Extractor.TargetLinks")
	defer span.End()

	byPrefix := make(map[string][]models.ContentDocumentLink)
	for _, link := range links {
		// Links to feed entities belong to the chatter flow, never here.
		if salesforce.IsFeedEntity(link.LinkedEntityID) {
			continue
		}
		if _, ok := mappings.Match(link.LinkedEntityID); !ok {
			continue
		}
		prefix := salesforce.Prefix(link.LinkedEntityID)
		byPrefix[prefix] = append(byPrefix[prefix], link)
	}

	e.logger.WithContext(ctx).WithField("prefixes", len(byPrefix)).Info("target links extracted")
	return byPrefix
}

// WantedDocuments collects the distinct document IDs referenced by the links.
func WantedDocuments(linksByPrefix map[string][]models.ContentDocumentLink) map[string]struct{} {
	wanted := make(map[string]struct{})
	for _, links := range linksByPrefix {
		for _, link := range links {
			wanted[link.ContentDocumentID] = struct{}{}
		}
	}
	return wanted
}

// FileUnits groups links into one unit per parent record. Document IDs are
// deduplicated per parent and documents without loadable file info are
// dropped; parents left with no documents produce no unit.
func (e *Extractor) FileUnits(ctx context.Context, linksByPrefix map[string][]models.ContentDocumentLink, mappings salesforce.MappingSet, fileInfo map[string]models.ContentVersion) map[string][]models.FileUnit {
	ctx, span := tracing.StartSpan(ctx, "Extractor.FileUnits")
	defer span.End()

	unitsByPrefix := make(map[string][]models.FileUnit)
	for prefix, links := range linksByPrefix {
		mapping, ok := mappings[prefix]
		if !ok {
			continue
		}

		docsByParent := make(map[string][]string)
		seen := make(map[string]map[string]struct{})
		order := make([]string, 0)
		for _, link := range links {
			if _, ok := fileInfo[link.ContentDocumentID]; !ok {
				continue
			}
			if seen[link.LinkedEntityID] == nil {
				seen[link.LinkedEntityID] = make(map[string]struct{})
				order = append(order, link.LinkedEntityID)
			}
			if _, dup := seen[link.LinkedEntityID][link.ContentDocumentID]; dup {
				continue
			}
			seen[link.LinkedEntityID][link.ContentDocumentID] = struct{}{}
			docsByParent[link.LinkedEntityID] = append(docsByParent[link.LinkedEntityID], link.ContentDocumentID)
		}

		units := make([]models.FileUnit, 0, len(docsByParent))
		for _, parentID := range order {
			docIDs := docsByParent[parentID]
			if len(docIDs) == 0 {
				continue
			}
			versions := make([]models.ContentVersion, 0, len(docIDs))
			for _, docID := range docIDs {
				versions = append(versions, fileInfo[docID])
			}
			units = append(units, models.FileUnit{
				ParentID:    parentID,
				ObjectName:  mapping.ObjectName,
				Versions:    versions,
				DocumentIDs: docIDs,
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
	e.logger.WithContext(ctx).WithField("units", total).Info("file units grouped")
	return unitsByPrefix
}

// sortFeedItems orders posts oldest first. CreatedDate is ISO 8601 so the
// raw string compare is chronological; the sort is stable so equal
// timestamps keep input order.
func sortFeedItems(posts []models.FeedPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Item.CreatedDate < posts[j].Item.CreatedDate
	})
}

func sortComments(comments []models.FeedComment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedDate < comments[j].CreatedDate
	})
}
