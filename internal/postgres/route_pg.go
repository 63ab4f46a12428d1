package postgres

import (
	"context"

	"routeline/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const saveBatchSize = 1000

// RouteStore persists routes with GORM
type RouteStore struct {
	db *gorm.DB
}

func NewRouteStore(db *gorm.DB) *RouteStore {
	return &RouteStore{db: db}
}

// SaveRoutes upserts routes in batches, one transaction per batch
func (s *RouteStore) SaveRoutes(ctx context.Context, routes []*model.Route) error {
	for i := 0; i < len(routes); i += saveBatchSize {
		end := min(i+saveBatchSize, len(routes))
		batch := routes[i:end]

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{UpdateAll: true}).
				CreateInBatches(batch, len(batch)).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadRoutes returns every route that is not soft deleted
func (s *RouteStore) LoadRoutes(ctx context.Context) ([]*model.Route, error) {
	var routes []*model.Route
	if err := s.db.WithContext(ctx).Find(&routes).Error; err != nil {
		return nil, err
	}
	return routes, nil
}
