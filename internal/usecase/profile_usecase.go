package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type ProfileUsecase struct {
	users  repo.UserRepository
	orders repo.OrderRepository
}

func NewProfileUsecase(users repo.UserRepository, orders repo.OrderRepository) *ProfileUsecase {
	return &ProfileUsecase{users: users, orders: orders}
}

// 本人確認。トークンのsubとパスのuserIdが違えば401（originalと同じ扱い）。
func (u *ProfileUsecase) authorize(requesterID int64, userID int64) error {
	if requesterID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if requesterID != userID {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return nil
}

func (u *ProfileUsecase) GetProfile(ctx context.Context, requesterID int64, userID int64) (model.User, error) {
	if err := u.authorize(requesterID, userID); err != nil {
		return model.User{}, err
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return model.User{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	return *user, nil
}

// userTypeごとの付帯ブロックまで含めた完全版プロフィール
type FullProfileOutput struct {
	User             model.User              `json:"user"`
	CustomerProfile  *model.CustomerProfile  `json:"customer_profile,omitempty"`
	JobSeekerProfile *model.JobSeekerProfile `json:"job_seeker_profile,omitempty"`
	RecentOrders     []model.Order           `json:"recent_orders,omitempty"`
}

func (u *ProfileUsecase) GetFullProfile(ctx context.Context, requesterID int64, userID int64) (FullProfileOutput, error) {
	if err := u.authorize(requesterID, userID); err != nil {
		return FullProfileOutput{}, err
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return FullProfileOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return FullProfileOutput{}, NewHTTPError(http.StatusNotFound, "user not found")
	}

	out := FullProfileOutput{User: *user}

	switch user.Role {
	case model.RoleCustomer:
		p, err := u.users.FindCustomerProfile(ctx, userID)
		if err != nil {
			return FullProfileOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.CustomerProfile = p

		orders, _, err := u.orders.ListByUserID(ctx, userID, 1, 10)
		if err != nil {
			return FullProfileOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.RecentOrders = orders
	case model.RoleJobSeeker:
		p, err := u.users.FindJobSeekerProfile(ctx, userID)
		if err != nil {
			return FullProfileOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.JobSeekerProfile = p
	}

	return out, nil
}

type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	ZipCode   string
}

func (u *ProfileUsecase) UpdateProfile(ctx context.Context, requesterID int64, userID int64, in UpdateProfileInput) (model.User, error) {
	if err := u.authorize(requesterID, userID); err != nil {
		return model.User{}, err
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return model.User{}, NewHTTPError(http.StatusNotFound, "user not found")
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Phone = in.Phone
	user.Address = in.Address
	user.City = in.City
	user.ZipCode = in.ZipCode
	user.UpdatedAt = time.Now()

	if err := u.users.UpdateProfileFields(ctx, *user); err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return *user, nil
}
