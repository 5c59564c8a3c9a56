package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 管理ダッシュボード用の参照系usecase。
type AdminUsecase struct {
	users  repo.UserRepository
	orders repo.OrderRepository
}

func NewAdminUsecase(users repo.UserRepository, orders repo.OrderRepository) *AdminUsecase {
	return &AdminUsecase{users: users, orders: orders}
}

type CustomerSummary struct {
	ID                   int64  `json:"id"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	NewsletterSubscribed bool   `json:"newsletter_subscribed"`
	TotalOrders          int64  `json:"total_orders"`
	TotalSpentMinor      int64  `json:"total_spent_minor"`
	Status               string `json:"status"`
	CreatedAt            string `json:"created_at"`
}

func (u *AdminUsecase) ListCustomers(ctx context.Context) ([]CustomerSummary, error) {
	users, err := u.users.ListByRole(ctx, model.RoleCustomer)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]CustomerSummary, 0, len(users))
	for _, user := range users {
		s := CustomerSummary{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Phone:     user.Phone,
			CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}

		//プロフィールが無い行でも一覧からは落とさない
		p, err := u.users.FindCustomerProfile(ctx, user.ID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if p != nil {
			s.NewsletterSubscribed = p.NewsletterSubscribed
			s.TotalOrders = p.TotalOrders
			s.TotalSpentMinor = p.TotalSpentMinor
			s.Status = p.Status
		}

		out = append(out, s)
	}

	return out, nil
}

type JobSeekerSummary struct {
	ID                int64  `json:"id"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	PositionInterest  string `json:"position_interest"`
	ExperienceLevel   string `json:"experience_level"`
	Availability      string `json:"availability"`
	ApplicationStatus string `json:"application_status"`
	CreatedAt         string `json:"created_at"`
}

func (u *AdminUsecase) ListJobSeekers(ctx context.Context) ([]JobSeekerSummary, error) {
	users, err := u.users.ListByRole(ctx, model.RoleJobSeeker)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]JobSeekerSummary, 0, len(users))
	for _, user := range users {
		s := JobSeekerSummary{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Phone:     user.Phone,
			CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}

		p, err := u.users.FindJobSeekerProfile(ctx, user.ID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if p != nil {
			s.PositionInterest = p.PositionInterest
			s.ExperienceLevel = p.ExperienceLevel
			s.Availability = p.Availability
			s.ApplicationStatus = p.ApplicationStatus
		}

		out = append(out, s)
	}

	return out, nil
}

type AdminListOrdersInput struct {
	Page   int
	Limit  int
	Status string
}

type AdminOrderListOutput struct {
	Items []model.Order `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (u *AdminUsecase) ListOrders(ctx context.Context, in AdminListOrdersInput) (AdminOrderListOutput, error) {
	if in.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	switch in.Status {
	case "", string(model.OrderStatusPending), string(model.OrderStatusPaid):
	default:
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	items, total, err := u.orders.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: in.Status,
	})
	if err != nil {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return AdminOrderListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

type SalesOutput struct {
	PaidOrders        int64         `json:"paid_orders"`
	RevenueMinorTotal int64         `json:"revenue_minor_total"`
	RecentPaid        []model.Order `json:"recent_paid"`
}

func (u *AdminUsecase) GetSales(ctx context.Context) (SalesOutput, error) {
	summary, err := u.orders.SummarizeSales(ctx)
	if err != nil {
		return SalesOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	recent, _, err := u.orders.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:   1,
		Limit:  10,
		Status: string(model.OrderStatusPaid),
	})
	if err != nil {
		return SalesOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return SalesOutput{
		PaidOrders:        summary.PaidOrders,
		RevenueMinorTotal: summary.RevenueMinorTotal,
		RecentPaid:        recent,
	}, nil
}
