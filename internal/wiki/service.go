// Package wiki serves the public knowledge base and its admin editor.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/models"
)

// Store persists categories and articles. Missing rows are reported as
// apperr.ErrNotFound and duplicate slugs as apperr.ErrConflict.
type Store interface {
	Index(ctx context.Context) ([]models.CategoryIndex, error)
	ArticleBySlug(ctx context.Context, slug string) (*models.Article, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	CategoriesByIDs(ctx context.Context, ids []int64) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	CountArticlesInCategory(ctx context.Context, id int64) (int64, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListArticles(ctx context.Context) ([]models.Article, error)
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	CreateArticle(ctx context.Context, a *models.Article) error
	UpdateArticle(ctx context.Context, a *models.Article) error
	DeleteArticle(ctx context.Context, id int64) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func localize(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return apperr.New(apperr.ErrNotFound, notFoundMsg)
	case errors.Is(err, apperr.ErrConflict):
		return apperr.New(apperr.ErrConflict, "该 Slug 已被使用")
	case errors.Is(err, apperr.ErrValidation):
		return apperr.New(apperr.ErrValidation, "分类不存在")
	}
	return err
}

// Index lists every category by name with the articles filed under it.
func (s *Service) Index(ctx context.Context) ([]models.CategoryIndex, error) {
	return s.store.Index(ctx)
}

// ArticleBySlug returns the public view of one article.
func (s *Service) ArticleBySlug(ctx context.Context, slug string) (*models.ArticleDetail, error) {
	a, err := s.store.ArticleBySlug(ctx, slug)
	if err != nil {
		return nil, localize(err, "文章未找到")
	}

	detail := &models.ArticleDetail{Title: a.Title, Content: a.Content, UpdatedAt: a.UpdatedAt}
	if a.CategoryID != nil {
		cats, err := s.store.CategoriesByIDs(ctx, []int64{*a.CategoryID})
		if err != nil {
			return nil, fmt.Errorf("load category: %w", err)
		}
		if len(cats) > 0 {
			name := cats[0].Name
			detail.Category = &models.CategoryName{Name: &name}
		}
	}
	return detail, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.New(apperr.ErrValidation, "分类名称不能为空")
	}
	return s.store.CreateCategory(ctx, name)
}

// DeleteCategory refuses while any article is still filed under id.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	n, err := s.store.CountArticlesInCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.New(apperr.ErrConflict, fmt.Sprintf("该分类下仍有 %d 篇文章，无法删除", n))
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return apperr.New(apperr.ErrConflict, "该分类下仍有文章，无法删除")
		}
		return localize(err, "分类未找到")
	}
	return nil
}

// ListArticles returns every article with the name of its category, or a
// null name when it has none.
func (s *Service) ListArticles(ctx context.Context) ([]models.ArticleSummary, error) {
	articles, err := s.store.ListArticles(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	var ids []int64
	for _, a := range articles {
		if a.CategoryID == nil {
			continue
		}
		if _, ok := seen[*a.CategoryID]; !ok {
			seen[*a.CategoryID] = struct{}{}
			ids = append(ids, *a.CategoryID)
		}
	}

	names := make(map[int64]string)
	if len(ids) > 0 {
		cats, err := s.store.CategoriesByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		for _, c := range cats {
			names[c.ID] = c.Name
		}
	}

	out := make([]models.ArticleSummary, 0, len(articles))
	for _, a := range articles {
		sum := models.ArticleSummary{ID: a.ID, Title: a.Title, Slug: a.Slug}
		if a.CategoryID != nil {
			if name, ok := names[*a.CategoryID]; ok {
				sum.Category.Name = &name
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *Service) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, localize(err, "文章未找到")
	}
	return a, nil
}

// build validates in and produces the row to persist. Content gets the
// chapter headings prepended; the raw chapters text is kept for editing.
func build(in models.ArticleInput) (*models.Article, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Slug) == "" {
		return nil, apperr.New(apperr.ErrValidation, "标题和 Slug 不能为空")
	}
	a := &models.Article{
		Title:   in.Title,
		Slug:    in.Slug,
		Content: RenderChapters(in.Chapters, in.Content),
	}
	if in.CategoryID != nil && *in.CategoryID != 0 {
		id := *in.CategoryID
		a.CategoryID = &id
	}
	if in.Chapters != "" {
		ch := in.Chapters
		a.Chapters = &ch
	}
	return a, nil
}

func (s *Service) CreateArticle(ctx context.Context, in models.ArticleInput) (*models.Article, error) {
	a, err := build(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateArticle(ctx, a); err != nil {
		return nil, localize(err, "文章未找到")
	}
	return a, nil
}

func (s *Service) UpdateArticle(ctx context.Context, id int64, in models.ArticleInput) (*models.Article, error) {
	a, err := build(in)
	if err != nil {
		return nil, err
	}
	a.ID = id
	if err := s.store.UpdateArticle(ctx, a); err != nil {
		return nil, localize(err, "文章未找到")
	}
	return a, nil
}

func (s *Service) DeleteArticle(ctx context.Context, id int64) error {
	return localize(s.store.DeleteArticle(ctx, id), "文章未找到")
}
