package models

import (
	"strings"
	"time"
)

func WithPostTitle(title string) PostOption {
	return func(p *Post) {
		p.Title = strings.TrimSpace(title)
	}
}

func WithPostSlug(s string) PostOption {
	return func(p *Post) {
		p.Slug = strings.ToLower(strings.TrimSpace(s))
	}
}

func WithPostBody(body string) PostOption {
	return func(p *Post) {
		p.Body = strings.TrimSpace(body)
	}
}

func WithPostExcerpt(excerpt string) PostOption {
	return func(p *Post) {
		p.Excerpt = strings.TrimSpace(excerpt)
	}
}

func WithPublished(published bool) PostOption {
	return func(p *Post) {
		p.Published = published
		if published && p.PublishedAt == nil {
			now := time.Now()
			p.PublishedAt = &now
		} else if !published {
			p.PublishedAt = nil
		}
	}
}
