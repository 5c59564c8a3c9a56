package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// 売上サマリ（paidのみ集計）
type SalesSummary struct {
	PaidOrders        int64
	RevenueMinorTotal int64
}

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	FindByReference(ctx context.Context, reference string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)

	//pendingの行だけを1回のUPDATEでpaidへ遷移させる。
	//更新できた（=この呼び出しが遷移を勝ち取った）ときだけtrueを返す。
	MarkPaid(ctx context.Context, reference string, paidAt time.Time, providerRef string, metadata string) (bool, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	SummarizeSales(ctx context.Context) (SalesSummary, error)
}
