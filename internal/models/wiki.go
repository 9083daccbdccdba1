package models

import "time"

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Article is a full row in the wiki_articles table.
type Article struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	Chapters   *string   `json:"chapters"`
	CategoryID *int64    `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ArticleLink struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// CategoryIndex is one entry of the public wiki index.
type CategoryIndex struct {
	Name     string        `json:"name"`
	Articles []ArticleLink `json:"wiki_articles"`
}

type CategoryName struct {
	Name *string `json:"name"`
}

// ArticleDetail is the public view of an article looked up by slug.
type ArticleDetail struct {
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	UpdatedAt time.Time     `json:"updated_at"`
	Category  *CategoryName `json:"category"`
}

// ArticleSummary is a row of the admin article listing.
type ArticleSummary struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Slug     string       `json:"slug"`
	Category CategoryName `json:"category"`
}

// ArticleInput is the JSON body for admin article create and update.
type ArticleInput struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Content    string `json:"content"`
	CategoryID *int64 `json:"category_id"`
	Chapters   string `json:"chapters"`
}

// CategoryInput is the JSON body for admin category create.
type CategoryInput struct {
	Name string `json:"name"`
}
