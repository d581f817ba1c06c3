package model

type Quote struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
}

func (q Quote) Identified() bool { return q.ID != "" && q.Text != "" }

type QuoteList []Quote

func (l QuoteList) Valid() bool {
	for _, q := range l {
		if !q.Identified() {
			return false
		}
	}
	return true
}

// Validatable is the per-type integrity contract the cache store enforces
// before an entry is considered readable.
type Validatable interface {
	Valid() bool
}

// MediaBearer is implemented by entities that reference upstream media.
type MediaBearer interface {
	MediaURL() string
}
