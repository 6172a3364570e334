package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stockdeck/stockdeck/internal/domain"
	"github.com/stockdeck/stockdeck/internal/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func (s *Service) ListProducts(ctx context.Context, ownerID uuid.UUID, query ListProductsQuery) (ProductPage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := query.PerPage
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	filter := ports.ProductFilter{
		Search:   strings.TrimSpace(query.Search),
		Category: strings.TrimSpace(query.Category),
		MinPrice: query.MinPrice,
		MaxPrice: query.MaxPrice,
		InStock:  query.InStock,
	}
	if err := filter.Validate(); err != nil {
		return ProductPage{}, fmt.Errorf("%w: invalid price filter", domain.ErrInvalidInput)
	}

	items, total, err := s.products.List(ctx, ownerID, filter, perPage, (page-1)*perPage)
	if err != nil {
		return ProductPage{}, err
	}

	out := make([]ProductItem, 0, len(items))
	for _, p := range items {
		out = append(out, toProductItem(p))
	}
	pages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		pages++
	}
	return ProductPage{
		Products:    out,
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
	}, nil
}

func (s *Service) CreateProduct(ctx context.Context, ownerID uuid.UUID, input ProductInput) (ProductItem, error) {
	if err := domain.ValidateProduct(input.Name, input.Category, input.Price, input.Stock); err != nil {
		return ProductItem{}, err
	}

	product, err := s.products.Create(ctx, ports.ProductCreateParams{
		UserID:      ownerID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price,
		Stock:       input.Stock,
		Status:      domain.StockStatus(input.Stock),
		CreatedAt:   s.nowFn(),
	})
	if err != nil {
		return ProductItem{}, err
	}
	return toProductItem(product), nil
}

func (s *Service) UpdateProduct(ctx context.Context, ownerID, productID uuid.UUID, patch ProductPatch) (ProductItem, error) {
	// Ownership check first: another tenant's product is indistinguishable
	// from a missing one.
	current, err := s.products.GetByID(ctx, ownerID, productID)
	if err != nil {
		return ProductItem{}, err
	}

	name := current.Name
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
	}
	category := current.Category
	if patch.Category != nil {
		category = strings.TrimSpace(*patch.Category)
	}
	price := current.Price
	if patch.Price != nil {
		price = *patch.Price
	}
	stock := current.Stock
	if patch.Stock != nil {
		stock = *patch.Stock
	}
	if err := domain.ValidateProduct(name, category, price, stock); err != nil {
		return ProductItem{}, err
	}

	params := ports.ProductUpdateParams{
		Name:        patch.Name,
		Description: patch.Description,
		Category:    patch.Category,
		Price:       patch.Price,
		Stock:       patch.Stock,
		UpdatedAt:   s.nowFn(),
	}
	if patch.Stock != nil {
		status := domain.StockStatus(*patch.Stock)
		params.Status = &status
	}

	updated, err := s.products.Update(ctx, ownerID, productID, params)
	if err != nil {
		return ProductItem{}, err
	}
	return toProductItem(updated), nil
}

func (s *Service) DeleteProduct(ctx context.Context, ownerID, productID uuid.UUID) error {
	return s.products.Delete(ctx, ownerID, productID)
}

func (s *Service) GetProductStats(ctx context.Context, ownerID uuid.UUID) (ProductStatsResponse, error) {
	since := s.nowFn().Add(-s.cfg.StatsWindow)
	stats, err := s.products.Stats(ctx, ownerID, since)
	if err != nil {
		return ProductStatsResponse{}, err
	}
	return toStatsResponse(stats), nil
}
