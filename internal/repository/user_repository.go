package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	UpdateProfileFields(ctx context.Context, user model.User) error
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)

	//userTypeごとの付帯プロフィール
	CreateCustomerProfile(ctx context.Context, p *model.CustomerProfile) error
	CreateJobSeekerProfile(ctx context.Context, p *model.JobSeekerProfile) error
	FindCustomerProfile(ctx context.Context, userID int64) (*model.CustomerProfile, error)
	FindJobSeekerProfile(ctx context.Context, userID int64) (*model.JobSeekerProfile, error)

	//注文確定時に購入実績を加算する
	IncrementCustomerTotals(ctx context.Context, userID int64, amountMinor int64) error
}
