package mock

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/glasswing/content-cache/pkg/model"
)

// Test fixtures for the content domain. Generated records always carry their
// identifying fields so they pass the cache integrity checks.

var publishedAt = time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)

// GenerateArticles returns num identified articles; every third one carries a
// canonical media link, every fifth one only the fallback link.
func GenerateArticles(num int) []model.Article {
	list := make([]model.Article, 0, num)
	for i := 0; i < num; i++ {
		at := publishedAt.Add(-time.Duration(i) * time.Hour)
		a := model.Article{
			ID:          fmt.Sprintf("a%d", i),
			Title:       fmt.Sprintf("article %d", i),
			Slug:        fmt.Sprintf("article-%d", i),
			Summary:     "summary",
			AuthorID:    fmt.Sprintf("author%d", i%3),
			Featured:    i%4 == 0,
			PublishedAt: &at,
		}
		switch {
		case i%3 == 0:
			a.Image = &model.Media{URL: fmt.Sprintf("https://cdn.example.com/a%d.jpg", i), Filename: fmt.Sprintf("a%d.jpg", i)}
		case i%5 == 0:
			a.ImageURL = fmt.Sprintf("https://cdn.example.com/legacy/a%d.jpg", i)
		}
		list = append(list, a)
	}
	return list
}

// GenerateArticlePage wraps num generated articles in the persisted
// collection shape with a consistent total.
func GenerateArticlePage(num int) model.ArticlePage {
	return model.ArticlePage{Items: GenerateArticles(num), Total: num}
}

func GenerateTeamMembers(num int) []model.TeamMember {
	list := make([]model.TeamMember, 0, num)
	for i := 0; i < num; i++ {
		m := model.TeamMember{
			ID:    fmt.Sprintf("t%d", i),
			Name:  fmt.Sprintf("member %d", i),
			Role:  "staff",
			Order: i,
		}
		if i%2 == 0 {
			m.Photo = &model.Media{URL: fmt.Sprintf("https://cdn.example.com/t%d.png", i)}
		}
		list = append(list, m)
	}
	return list
}

func GenerateQuotes(num int) []model.Quote {
	list := make([]model.Quote, 0, num)
	for i := 0; i < num; i++ {
		list = append(list, model.Quote{
			ID:     fmt.Sprintf("q%d", i),
			Text:   fmt.Sprintf("quote %d", i),
			Author: fmt.Sprintf("author %d", rand.Intn(num)),
		})
	}
	return list
}
