package storage

import (
	"context"

	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/catalog"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetProfessional(ctx context.Context, id string) (catalog.Professional, error) {
	var p catalog.Professional
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_id, name, profession, active
		FROM professionals
		WHERE id = $1
	`, id).Scan(&p.ID, &p.BusinessID, &p.Name, &p.Profession, &p.Active)
	if IsNotFound(err) {
		return catalog.Professional{}, model.ErrNotFound
	}
	return p, err
}

func (r *CatalogRepository) UpsertProfessional(ctx context.Context, p catalog.Professional) (catalog.Professional, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO professionals (id, business_id, name, profession, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET business_id = EXCLUDED.business_id,
			name = EXCLUDED.name,
			profession = EXCLUDED.profession,
			active = EXCLUDED.active,
			updated_at = now()
	`, p.ID, p.BusinessID, p.Name, p.Profession, p.Active)
	if err != nil {
		return catalog.Professional{}, err
	}
	return p, nil
}

func (r *CatalogRepository) GetService(ctx context.Context, id string) (catalog.Service, error) {
	var s catalog.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_id, name, tag, duration_minutes, active
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.BusinessID, &s.Name, &s.Tag, &s.DurationMinutes, &s.Active)
	if IsNotFound(err) {
		return catalog.Service{}, model.ErrNotFound
	}
	return s, err
}

func (r *CatalogRepository) UpsertService(ctx context.Context, s catalog.Service) (catalog.Service, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, business_id, name, tag, duration_minutes, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET business_id = EXCLUDED.business_id,
			name = EXCLUDED.name,
			tag = EXCLUDED.tag,
			duration_minutes = EXCLUDED.duration_minutes,
			active = EXCLUDED.active,
			updated_at = now()
	`, s.ID, s.BusinessID, s.Name, s.Tag, s.DurationMinutes, s.Active)
	if err != nil {
		return catalog.Service{}, err
	}
	return s, nil
}
