package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) FindByReference(ctx context.Context, reference string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

// MarkPaidは条件付きUPDATE1回でpending→paidを確定させる。
// 同じreferenceへWebhookが同時に来ても、勝てるのは1リクエストだけ。
func (r *OrderGormRepository) MarkPaid(ctx context.Context, reference string, paidAt time.Time, providerRef string, metadata string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("reference = ? AND status = ?", reference, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":       model.OrderStatusPaid,
			"paid_at":      paidAt,
			"provider_ref": providerRef,
			"metadata":     metadata,
			"updated_at":   paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	err := q.Order("id desc").
		Limit(f.Limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) SummarizeSales(ctx context.Context) (repo.SalesSummary, error) {
	var s repo.SalesSummary

	row := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ?", model.OrderStatusPaid).
		Select("COUNT(*) AS paid_orders, COALESCE(SUM(amount_minor), 0) AS revenue_minor_total").
		Row()
	if err := row.Scan(&s.PaidOrders, &s.RevenueMinorTotal); err != nil {
		return repo.SalesSummary{}, err
	}

	return s, nil
}
