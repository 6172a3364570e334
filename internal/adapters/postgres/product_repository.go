package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockdeck/stockdeck/internal/domain"
	"github.com/stockdeck/stockdeck/internal/ports"
)

type productRepository struct {
	db *gorm.DB
}

var _ ports.ProductRepository = (*productRepository)(nil)

func (r *productRepository) Create(ctx context.Context, params ports.ProductCreateParams) (domain.Product, error) {
	rec := productModel{
		UserID:      params.UserID,
		Name:        params.Name,
		Description: params.Description,
		Category:    params.Category,
		Price:       params.Price,
		Stock:       params.Stock,
		Status:      params.Status,
		CreatedAt:   params.CreatedAt,
		UpdatedAt:   params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Product{}, err
	}
	return toDomainProduct(rec), nil
}

func (r *productRepository) GetByID(ctx context.Context, userID, productID uuid.UUID) (domain.Product, error) {
	var rec productModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Where("user_id = ?", userID).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	return toDomainProduct(rec), nil
}

// List applies the typed filter predicates one by one; unset pointers add no
// clause. Results are newest first.
func (r *productRepository) List(ctx context.Context, userID uuid.UUID, filter ports.ProductFilter, limit, offset int) ([]domain.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&productModel{}).Where("user_id = ?", userID)
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		base = base.Where(
			r.db.Where("name ILIKE ?", pattern).Or("description ILIKE ?", pattern),
		)
	}
	if filter.Category != "" {
		base = base.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		base = base.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		base = base.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.InStock != nil {
		status := domain.StatusOutOfStock
		if *filter.InStock {
			status = domain.StatusInStock
		}
		base = base.Where("status = ?", status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []productModel
	err := base.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.Product, 0, len(rows))
	for _, item := range rows {
		result = append(result, toDomainProduct(item))
	}
	return result, total, nil
}

func (r *productRepository) Update(ctx context.Context, userID, productID uuid.UUID, params ports.ProductUpdateParams) (domain.Product, error) {
	changes := map[string]any{"updated_at": params.UpdatedAt}
	if params.Name != nil {
		changes["name"] = *params.Name
	}
	if params.Description != nil {
		changes["description"] = *params.Description
	}
	if params.Category != nil {
		changes["category"] = *params.Category
	}
	if params.Price != nil {
		changes["price"] = *params.Price
	}
	if params.Stock != nil {
		changes["stock"] = *params.Stock
	}
	if params.Status != nil {
		changes["status"] = *params.Status
	}

	res := r.db.WithContext(ctx).
		Model(&productModel{}).
		Where("product_id = ?", productID).
		Where("user_id = ?", userID).
		Updates(changes)
	if res.Error != nil {
		return domain.Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, userID, productID)
}

func (r *productRepository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Where("user_id = ?", userID).
		Delete(&productModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Stats aggregates one owner's inventory in SQL so the dashboard never pages
// the whole table through the application.
func (r *productRepository) Stats(ctx context.Context, userID uuid.UUID, since time.Time) (ports.ProductStats, error) {
	stats := ports.ProductStats{PriceBuckets: map[string]int64{}}
	db := r.db.WithContext(ctx)

	if err := db.Model(&productModel{}).
		Where("user_id = ?", userID).
		Count(&stats.Total).Error; err != nil {
		return ports.ProductStats{}, err
	}

	var categories []ports.CategoryCount
	err := db.Model(&productModel{}).
		Select("category, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("category").
		Order("count DESC").
		Scan(&categories).Error
	if err != nil {
		return ports.ProductStats{}, err
	}
	stats.Categories = categories

	if err := db.Model(&productModel{}).
		Where("user_id = ?", userID).
		Where("status = ?", domain.StatusInStock).
		Count(&stats.InStock).Error; err != nil {
		return ports.ProductStats{}, err
	}
	stats.OutOfStock = stats.Total - stats.InStock

	type bucketRow struct {
		Bucket string
		Count  int64
	}
	var buckets []bucketRow
	err = db.Model(&productModel{}).
		Select(`CASE
			WHEN price < 100 THEN '0-100'
			WHEN price < 500 THEN '100-500'
			WHEN price < 1000 THEN '500-1000'
			ELSE '1000+'
		END AS bucket, COUNT(*) AS count`).
		Where("user_id = ?", userID).
		Group("bucket").
		Scan(&buckets).Error
	if err != nil {
		return ports.ProductStats{}, err
	}
	for _, b := range []string{"0-100", "100-500", "500-1000", "1000+"} {
		stats.PriceBuckets[b] = 0
	}
	for _, b := range buckets {
		stats.PriceBuckets[b.Bucket] = b.Count
	}

	var timeline []ports.DayCount
	err = db.Model(&productModel{}).
		Select("to_char(created_at, 'YYYY-MM-DD') AS date, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Where("created_at >= ?", since).
		Group("date").
		Order("date ASC").
		Scan(&timeline).Error
	if err != nil {
		return ports.ProductStats{}, err
	}
	stats.CreatedByDay = timeline

	return stats, nil
}
