// Package catalog is the read-only lookup of active offer definitions.
package catalog

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/apperr"
)

const (
	cacheTTL     = 60 * time.Second
	cacheCleanup = 5 * time.Minute
)

type Service struct {
	db    *gorm.DB
	log   *zap.SugaredLogger
	cache *gocache.Cache
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log, cache: gocache.New(cacheTTL, cacheCleanup)}
}

// GetActivePackage returns the package when it is active and not soft-deleted.
func (s *Service) GetActivePackage(ctx context.Context, id string) (*models.Package, error) {
	if v, ok := s.cache.Get("id:" + id); ok {
		return v.(*models.Package), nil
	}
	var pkg models.Package
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("package not found or inactive")
		}
		return nil, apperr.Database("failed to load package", err)
	}
	s.cache.SetDefault("id:"+id, &pkg)
	return &pkg, nil
}

// GetActivePackageBySlug resolves a package by its human-readable slug.
func (s *Service) GetActivePackageBySlug(ctx context.Context, slug string) (*models.Package, error) {
	if v, ok := s.cache.Get("slug:" + slug); ok {
		return v.(*models.Package), nil
	}
	var pkg models.Package
	err := s.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("package not found or inactive")
		}
		return nil, apperr.Database("failed to load package", err)
	}
	s.cache.SetDefault("slug:"+slug, &pkg)
	return &pkg, nil
}

// ListActive returns all purchasable packages.
func (s *Service) ListActive(ctx context.Context) ([]*models.Package, error) {
	var pkgs []*models.Package
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at asc").
		Find(&pkgs).Error; err != nil {
		return nil, apperr.Database("failed to list packages", err)
	}
	return pkgs, nil
}

// Flush drops the cache; called after operator edits and from tests.
func (s *Service) Flush() {
	s.cache.Flush()
}
