package model

import "time"

// Media is an upstream-hosted attachment reference. URLs issued by the
// provider are ephemeral, which is why the pre-fetch pipeline persists the
// bytes locally as soon as an entity is cached.
type Media struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Body        string     `json:"body,omitempty"`
	AuthorID    string     `json:"authorId,omitempty"`
	Featured    bool       `json:"featured,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	// Image is the canonical media link; ImageURL is a secondary plain-string
	// field some provider records carry instead.
	Image    *Media `json:"image,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Identified reports whether the record carries its identifying fields.
// Records without them are treated as cache corruption.
func (a Article) Identified() bool { return a.ID != "" && a.Title != "" }

// MediaURL returns the first non-empty media link, canonical field first.
// Fallback fields are never merged with the primary.
func (a Article) MediaURL() string {
	if a.Image != nil && a.Image.URL != "" {
		return a.Image.URL
	}
	return a.ImageURL
}

// ArticlePage is the persisted shape of the paginated articles collection.
type ArticlePage struct {
	Items []Article `json:"items"`
	Total int       `json:"total"`
}

// Valid implements the integrity check for paginated article collections.
// A declared total smaller than the element count means the cache was
// truncated mid-write.
func (p ArticlePage) Valid() bool {
	if p.Total < len(p.Items) {
		return false
	}
	for _, a := range p.Items {
		if !a.Identified() {
			return false
		}
	}
	return true
}

type ArticleList []Article

func (l ArticleList) Valid() bool {
	for _, a := range l {
		if !a.Identified() {
			return false
		}
	}
	return true
}
