package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockdeck/stockdeck/internal/domain"
	"github.com/stockdeck/stockdeck/internal/ports"
)

type Config struct {
	DefaultRole          string
	SessionTTL           time.Duration
	CodeTTL              time.Duration
	CodeLength           int
	FailedLoginThreshold int
	LockoutDuration      time.Duration
	CodeAttemptThreshold int
	CodeAttemptWindow    time.Duration
	StatsWindow          time.Duration
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	UserID uuid.UUID `json:"user_id"`
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type FederatedLoginRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
	IPAddress   string `json:"ip_address"`
	UserAgent   string `json:"user_agent"`
}

type ProfileResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type VerifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

// ProductPatch carries partial updates; absent JSON fields stay nil and are
// not written.
type ProductPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
}

type ProductItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListProductsQuery struct {
	Page     int
	PerPage  int
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	InStock  *bool
}

type ProductPage struct {
	Products    []ProductItem `json:"products"`
	Total       int64         `json:"total"`
	Pages       int64         `json:"pages"`
	CurrentPage int           `json:"current_page"`
}

type CategoryStat struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type StockAvailability struct {
	InStock    int64 `json:"in_stock"`
	OutOfStock int64 `json:"out_of_stock"`
}

type TimelinePoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type ProductStatsResponse struct {
	CategoryStats     []CategoryStat    `json:"category_stats"`
	StockAvailability StockAvailability `json:"stock_availability"`
	PriceDistribution map[string]int64  `json:"price_distribution"`
	ProductsOverTime  []TimelinePoint   `json:"products_over_time"`
	TotalProducts     int64             `json:"total_products"`
}

func toProductItem(p domain.Product) ProductItem {
	return ProductItem{
		ProductID:   p.ProductID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toStatsResponse(s ports.ProductStats) ProductStatsResponse {
	categories := make([]CategoryStat, 0, len(s.Categories))
	for _, c := range s.Categories {
		categories = append(categories, CategoryStat{Category: c.Category, Count: c.Count})
	}
	timeline := make([]TimelinePoint, 0, len(s.CreatedByDay))
	for _, d := range s.CreatedByDay {
		timeline = append(timeline, TimelinePoint{Date: d.Date, Count: d.Count})
	}
	return ProductStatsResponse{
		CategoryStats: categories,
		StockAvailability: StockAvailability{
			InStock:    s.InStock,
			OutOfStock: s.OutOfStock,
		},
		PriceDistribution: s.PriceBuckets,
		ProductsOverTime:  timeline,
		TotalProducts:     s.Total,
	}
}
