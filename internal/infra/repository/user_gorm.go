package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	domainrepo "app/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}
	return nil
}

// emailでユーザーを1件取得。見つからなければ (nil, nil)。
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}

func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}

// 連絡先フィールドだけを更新する（email/passwordはここでは触らない）
func (r *userGormRepository) UpdateProfileFields(ctx context.Context, user model.User) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"phone":      user.Phone,
			"address":    user.Address,
			"city":       user.City,
			"zip_code":   user.ZipCode,
			"updated_at": user.UpdatedAt,
		}).Error
}

func (r *userGormRepository) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

func (r *userGormRepository) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at desc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userGormRepository) CreateCustomerProfile(ctx context.Context, p *model.CustomerProfile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *userGormRepository) CreateJobSeekerProfile(ctx context.Context, p *model.JobSeekerProfile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *userGormRepository) FindCustomerProfile(ctx context.Context, userID int64) (*model.CustomerProfile, error) {
	var p model.CustomerProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *userGormRepository) FindJobSeekerProfile(ctx context.Context, userID int64) (*model.JobSeekerProfile, error) {
	var p model.JobSeekerProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// 注文確定時の購入実績加算。プロフィールが無ければ何もしない。
func (r *userGormRepository) IncrementCustomerTotals(ctx context.Context, userID int64, amountMinor int64) error {
	return r.db.WithContext(ctx).Model(&model.CustomerProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_orders":      gorm.Expr("total_orders + 1"),
			"total_spent_minor": gorm.Expr("total_spent_minor + ?", amountMinor),
		}).Error
}
