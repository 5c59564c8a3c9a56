package repository

import (
	"context"

	"app/internal/domain/model"
)

type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
}

type ProductRepository interface {
	//公開中（is_active）の商品だけを返す
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	ListAdmin(ctx context.Context, page int, limit int) ([]model.Product, int64, error)
	FindByID(ctx context.Context, productID int64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SetActive(ctx context.Context, productID int64, active bool) error
}
