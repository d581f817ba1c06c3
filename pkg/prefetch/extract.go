package prefetch

import "github.com/glasswing/content-cache/pkg/model"

// CollectMediaURLs extracts the referenced media URL of every entity in a
// freshly-fetched batch. Each entity contributes its first non-empty link
// field only; fallback fields are never merged with the primary.
func CollectMediaURLs[T model.MediaBearer](items []T) []string {
	urls := make([]string, 0, len(items))
	for _, item := range items {
		if u := item.MediaURL(); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
