package reconciling

import "tomekeeper/src/book"

// mergeResults folds per-provider metadata into one record. Providers are
// visited in merge order (priority, then registration), and the first
// provider with a value wins each field. Genres are the exception: they
// are unioned across every provider so one source's sparse tagging does
// not shadow another's.
func mergeResults(order []string, results map[string]*book.Metadata) *book.Metadata {
	merged := &book.Metadata{}
	var genres []string
	for _, name := range order {
		md := results[name]
		if md == nil {
			continue
		}
		merged.FillFrom(md)
		genres = append(genres, md.Genres...)
	}
	merged.Genres = genres
	return merged
}
