package implementation

import (
	"context"
	"errors"

	"ai-postgen-be/internal/mapper"
	"ai-postgen-be/internal/model"
	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/internal/repository/specification"
	"ai-postgen-be/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProductMapper
}

func NewProductRepository(db *gorm.DB) contract.ProductRepository {
	return &ProductRepositoryImpl{
		db:     db,
		mapper: mapper.NewProductMapper(),
	}
}

func (r *ProductRepositoryImpl) FindByID(ctx context.Context, id string) (*store.Product, error) {
	var m model.Product
	query := specification.ByID{ID: id}.Apply(r.db.WithContext(ctx))
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *ProductRepositoryImpl) Upsert(ctx context.Context, product *store.Product) error {
	m := r.mapper.ToModel(product)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "unit", "url", "updated_at"}),
		}).
		Create(m).Error
}
