// Package devbackend is an in-memory stand-in for the upstream brand
// backend, used for local development and end-to-end tests.
package devbackend

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atlasplast/brandadmin/internal/domain"
	apperrors "github.com/atlasplast/brandadmin/pkg/errors"
	"github.com/atlasplast/brandadmin/pkg/pagination"
)

// Query selects a page of brands.
type Query struct {
	Page     pagination.Params
	Search   string
	IsActive *bool
}

// Store keeps brands in memory. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	brands map[string]*domain.Brand
	order  []string
	now    func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		brands: make(map[string]*domain.Brand),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns the matching brands for q, newest first, and the total
// number of matches.
func (s *Store) List(_ context.Context, q Query) ([]domain.Brand, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))
	matched := make([]domain.Brand, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.brands[s.order[i]]
		if q.IsActive != nil && b.IsActive != *q.IsActive {
			continue
		}
		if search != "" && !matches(b, search) {
			continue
		}
		matched = append(matched, *b)
	}

	start, end := q.Page.Bounds(len(matched))
	return matched[start:end], len(matched)
}

func matches(b *domain.Brand, search string) bool {
	return strings.Contains(strings.ToLower(b.Name), search) ||
		strings.Contains(b.Slug, search) ||
		strings.Contains(strings.ToLower(b.Origin.En), search)
}

// Get finds a brand by id or slug.
func (s *Store) Get(_ context.Context, identifier string) (*domain.Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.lookup(identifier)
	if b == nil {
		return nil, apperrors.NotFound("brand", identifier)
	}
	out := *b
	return &out, nil
}

// Create stores a new active brand.
func (s *Store) Create(_ context.Context, in domain.BrandInput, images Images) (*domain.Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugTaken(in.Slug, "") {
		return nil, apperrors.AlreadyExists("brand", "slug", in.Slug)
	}

	now := s.now()
	b := &domain.Brand{
		ID:        uuid.New().String(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.Apply(b)
	images.apply(b)

	s.brands[b.ID] = b
	s.order = append(s.order, b.ID)
	out := *b
	return &out, nil
}

// Replace overwrites the editable fields of brand id.
func (s *Store) Replace(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error) {
	return s.update(ctx, id, in.Slug, func(b *domain.Brand) { in.Apply(b) })
}

// Patch applies p and images to brand id.
func (s *Store) Patch(ctx context.Context, id string, p domain.BrandPatch, images Images) (*domain.Brand, error) {
	slug := ""
	if p.Slug != nil {
		slug = *p.Slug
	}
	return s.update(ctx, id, slug, func(b *domain.Brand) {
		p.Apply(b)
		images.apply(b)
	})
}

func (s *Store) update(_ context.Context, id, slug string, mutate func(*domain.Brand)) (*domain.Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.brands[id]
	if !ok {
		return nil, apperrors.NotFound("brand", id)
	}
	if slug != "" && s.slugTaken(slug, id) {
		return nil, apperrors.AlreadyExists("brand", "slug", slug)
	}

	mutate(b)
	b.UpdatedAt = s.now()
	out := *b
	return &out, nil
}

// Deactivate marks brand id inactive. Deactivating an inactive brand
// succeeds and changes nothing.
func (s *Store) Deactivate(_ context.Context, id string) (*domain.Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.brands[id]
	if !ok {
		return nil, apperrors.NotFound("brand", id)
	}
	if b.IsActive {
		b.IsActive = false
		b.UpdatedAt = s.now()
	}
	out := *b
	return &out, nil
}

// Delete removes brand id.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.brands[id]; !ok {
		return apperrors.NotFound("brand", id)
	}
	delete(s.brands, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored brands, active or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.brands)
}

func (s *Store) lookup(identifier string) *domain.Brand {
	if b, ok := s.brands[identifier]; ok {
		return b
	}
	for _, b := range s.brands {
		if b.Slug == identifier {
			return b
		}
	}
	return nil
}

func (s *Store) slugTaken(slug, exceptID string) bool {
	for id, b := range s.brands {
		if id != exceptID && b.Slug == slug {
			return true
		}
	}
	return false
}

// Images are stored file URLs attached to a brand on create or update.
// Empty fields leave the brand's current images unchanged; gallery images
// are appended.
type Images struct {
	Logo      string
	MainImage string
	Gallery   []string
}

func (im Images) apply(b *domain.Brand) {
	if im.Logo != "" {
		b.Logo = im.Logo
	}
	if im.MainImage != "" {
		b.MainImage = im.MainImage
	}
	if len(im.Gallery) > 0 {
		b.GalleryImages = append(append([]string(nil), b.GalleryImages...), im.Gallery...)
	}
}
