package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/models"
)

// WikiStore persists wiki categories and articles.
type WikiStore struct {
	pg *PostgresStore
}

func NewWikiStore(pg *PostgresStore) *WikiStore {
	return &WikiStore{pg: pg}
}

const articleColumns = `id, title, slug, content, chapters, category_id, created_at, updated_at`

func scanArticle(row pgx.Row) (*models.Article, error) {
	var a models.Article
	err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Content, &a.Chapters, &a.CategoryID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// writeErr maps constraint violations on article writes.
func writeErr(op string, err error) error {
	switch pgCode(err) {
	case pgUniqueViolation:
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	case pgForeignKeyViolation:
		return fmt.Errorf("%s: %w", op, apperr.ErrValidation)
	}
	return fmt.Errorf("%s: %w", op, notFound(err))
}

// Index returns every category ordered by name with the title and slug of
// its articles. Categories without articles carry an empty list.
func (s *WikiStore) Index(ctx context.Context) ([]models.CategoryIndex, error) {
	rows, err := s.pg.pool.Query(ctx,
		`SELECT c.id, c.name, a.title, a.slug
		 FROM wiki_categories c
		 LEFT JOIN wiki_articles a ON a.category_id = c.id
		 ORDER BY c.name ASC, c.id ASC, a.title ASC`)
	if err != nil {
		return nil, fmt.Errorf("wiki index: %w", err)
	}
	defer rows.Close()

	out := []models.CategoryIndex{}
	lastID := int64(-1)
	for rows.Next() {
		var (
			id          int64
			name        string
			title, slug *string
		)
		if err := rows.Scan(&id, &name, &title, &slug); err != nil {
			return nil, err
		}
		if id != lastID {
			out = append(out, models.CategoryIndex{Name: name, Articles: []models.ArticleLink{}})
			lastID = id
		}
		if title != nil && slug != nil {
			cur := &out[len(out)-1]
			cur.Articles = append(cur.Articles, models.ArticleLink{Title: *title, Slug: *slug})
		}
	}
	return out, rows.Err()
}

func (s *WikiStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pg.pool.Query(ctx, `SELECT id, name FROM wiki_categories ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	return collectCategories(rows)
}

func (s *WikiStore) CategoriesByIDs(ctx context.Context, ids []int64) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pg.pool.Query(ctx, `SELECT id, name FROM wiki_categories WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("categories by id: %w", err)
	}
	defer rows.Close()
	return collectCategories(rows)
}

func collectCategories(rows pgx.Rows) ([]models.Category, error) {
	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *WikiStore) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	c := models.Category{Name: name}
	err := s.pg.pool.QueryRow(ctx,
		`INSERT INTO wiki_categories (name) VALUES ($1) RETURNING id`, name,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (s *WikiStore) CountArticlesInCategory(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := s.pg.pool.QueryRow(ctx,
		`SELECT count(*) FROM wiki_articles WHERE category_id = $1`, id,
	).Scan(&n)
	return n, err
}

// DeleteCategory returns apperr.ErrConflict while articles still reference
// the category and apperr.ErrNotFound when it does not exist.
func (s *WikiStore) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := s.pg.pool.Exec(ctx, `DELETE FROM wiki_categories WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("delete category: %w", apperr.ErrConflict)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *WikiStore) ArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	a, err := scanArticle(s.pg.pool.QueryRow(ctx,
		`SELECT `+articleColumns+` FROM wiki_articles WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (s *WikiStore) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	a, err := scanArticle(s.pg.pool.QueryRow(ctx,
		`SELECT `+articleColumns+` FROM wiki_articles WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// ListArticles returns every article, most recently updated first.
func (s *WikiStore) ListArticles(ctx context.Context) ([]models.Article, error) {
	rows, err := s.pg.pool.Query(ctx,
		`SELECT `+articleColumns+` FROM wiki_articles ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	out := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CreateArticle inserts a and fills in its id and timestamps.
func (s *WikiStore) CreateArticle(ctx context.Context, a *models.Article) error {
	err := s.pg.pool.QueryRow(ctx,
		`INSERT INTO wiki_articles (title, slug, content, chapters, category_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		a.Title, a.Slug, a.Content, a.Chapters, a.CategoryID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return writeErr("create article", err)
	}
	return nil
}

// UpdateArticle overwrites the editable fields of a.ID and refreshes
// updated_at.
func (s *WikiStore) UpdateArticle(ctx context.Context, a *models.Article) error {
	err := s.pg.pool.QueryRow(ctx,
		`UPDATE wiki_articles
		 SET title = $2, slug = $3, content = $4, chapters = $5, category_id = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		a.ID, a.Title, a.Slug, a.Content, a.Chapters, a.CategoryID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return writeErr("update article", err)
	}
	return nil
}

func (s *WikiStore) DeleteArticle(ctx context.Context, id int64) error {
	tag, err := s.pg.pool.Exec(ctx, `DELETE FROM wiki_articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
