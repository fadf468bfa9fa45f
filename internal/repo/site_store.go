package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"pinco/internal/models"
)

type SiteStore struct{ db *gorm.DB }

func NewSiteStore(db *gorm.DB) *SiteStore { return &SiteStore{db: db} }

func (s *SiteStore) Create(ctx context.Context, site *models.Site) error {
	site.Domain = strings.ToLower(strings.TrimSpace(site.Domain))
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Site{}).
		Where("domain = ?", site.Domain).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	return s.db.WithContext(ctx).Create(site).Error
}

func (s *SiteStore) GetByID(ctx context.Context, id uint) (*models.Site, error) {
	var site models.Site
	if err := s.db.WithContext(ctx).First(&site, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &site, nil
}

// GetActiveByDomain — точное совпадение hostname, только активные сайты.
// Неактивный сайт для вызывающего неотличим от несуществующего.
func (s *SiteStore) GetActiveByDomain(ctx context.Context, domain string) (*models.Site, error) {
	var site models.Site
	err := s.db.WithContext(ctx).
		Where("domain = ? AND active", strings.ToLower(domain)).First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &site, nil
}

func (s *SiteStore) List(ctx context.Context) ([]models.Site, error) {
	var out []models.Site
	err := s.db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// Update — домен не должен столкнуться с другим сайтом.
func (s *SiteStore) Update(ctx context.Context, site *models.Site) error {
	site.Domain = strings.ToLower(strings.TrimSpace(site.Domain))
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Site{}).
		Where("domain = ? AND id <> ?", site.Domain, site.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	return s.db.WithContext(ctx).Save(site).Error
}

func (s *SiteStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Site{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
