package mapper

import (
	"ai-postgen-be/internal/model"
	"ai-postgen-be/pkg/store"
)

type ProductMapper struct{}

func NewProductMapper() *ProductMapper {
	return &ProductMapper{}
}

func (m *ProductMapper) ToDomain(p *model.Product) *store.Product {
	if p == nil {
		return nil
	}
	return &store.Product{
		ID:          p.Id,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Unit:        p.Unit,
		URL:         p.Url,
	}
}

func (m *ProductMapper) ToModel(p *store.Product) *model.Product {
	if p == nil {
		return nil
	}
	return &model.Product{
		Id:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Unit:        p.Unit,
		Url:         p.URL,
	}
}
