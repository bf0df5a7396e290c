package sfexport

import (
	"context"
	"sort"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/salesforce"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// AnalyzeLinks counts linked records and distinct documents per ID prefix so
// the operator can configure mappings before starting a run.
func (r *Reader) AnalyzeLinks(ctx context.Context, path string) ([]models.PrefixCount, error) {
	ctx, span := tracing.StartSpan(ctx, "Reader.AnalyzeLinks")
	defer span.End()

	links, err := r.ReadLinks(ctx, path)
	if err != nil {
		return nil, err
	}

	records := make(map[string]map[string]struct{})
	documents := make(map[string]map[string]struct{})
	for _, link := range links {
		prefix := salesforce.Prefix(link.LinkedEntityID)
		if prefix == "" {
			continue
		}
		if records[prefix] == nil {
			records[prefix] = make(map[string]struct{})
			documents[prefix] = make(map[string]struct{})
		}
		records[prefix][link.LinkedEntityID] = struct{}{}
		documents[prefix][link.ContentDocumentID] = struct{}{}
	}

	counts := make([]models.PrefixCount, 0, len(records))
	for prefix, ids := range records {
		counts = append(counts, models.PrefixCount{
			Prefix:  prefix,
			Records: len(ids),
			Files:   len(documents[prefix]),
		})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Prefix < counts[j].Prefix })

	return counts, nil
}

// AnalyzeFeed counts feed items per parent record prefix.
func (r *Reader) AnalyzeFeed(ctx context.Context, path string) ([]models.PrefixCount, error) {
	ctx, span := tracing.StartSpan(ctx, "Reader.AnalyzeFeed")
	defer span.End()

	items, err := r.ReadFeedItems(ctx, path)
	if err != nil {
		return nil, err
	}

	records := make(map[string]map[string]struct{})
	posts := make(map[string]int)
	for _, item := range items {
		prefix := salesforce.Prefix(item.ParentID)
		if prefix == "" {
			continue
		}
		if records[prefix] == nil {
			records[prefix] = make(map[string]struct{})
		}
		records[prefix][item.ParentID] = struct{}{}
		posts[prefix]++
	}

	counts := make([]models.PrefixCount, 0, len(records))
	for prefix, ids := range records {
		counts = append(counts, models.PrefixCount{
			Prefix:  prefix,
			Records: len(ids),
			Posts:   posts[prefix],
		})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Prefix < counts[j].Prefix })

	return counts, nil
}
