package model

type TeamMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Bio   string `json:"bio,omitempty"`
	Order int    `json:"order,omitempty"`
	// Photo is the canonical media link; PhotoURL the secondary fallback.
	Photo    *Media `json:"photo,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

func (m TeamMember) Identified() bool { return m.ID != "" && m.Name != "" }

func (m TeamMember) MediaURL() string {
	if m.Photo != nil && m.Photo.URL != "" {
		return m.Photo.URL
	}
	return m.PhotoURL
}

type TeamList []TeamMember

func (l TeamList) Valid() bool {
	for _, m := range l {
		if !m.Identified() {
			return false
		}
	}
	return true
}
