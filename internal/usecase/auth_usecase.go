package usecase

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// 発行するアクセストークンの有効期限
const accessTokenTTL = 7 * 24 * time.Hour

// bcryptのコスト
const bcryptCost = 12

type AuthUsecase struct {
	tx        repo.TransactionManager
	users     repo.UserRepository
	jwtSecret []byte
	now       func() time.Time
}

func NewAuthUsecase(tx repo.TransactionManager, users repo.UserRepository, jwtSecret string) *AuthUsecase {
	return &AuthUsecase{
		tx:        tx,
		users:     users,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

type SignUpInput struct {
	Email    string
	Password string
	UserType string // CUSTOMER / JOB_SEEKER

	//連絡先（任意）
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	ZipCode   string

	//CUSTOMER向け
	NewsletterSubscribed bool

	//JOB_SEEKER向け
	PositionInterest string
	ExperienceLevel  string
	Availability     string
	Bio              string
	JobAlerts        bool
}

type SignUpOutput struct {
	User model.User `json:"user"`
}

func (u *AuthUsecase) SignUp(ctx context.Context, in SignUpInput) (SignUpOutput, error) {
	email := strings.TrimSpace(in.Email)

	if email == "" || in.Password == "" || in.UserType == "" {
		return SignUpOutput{}, NewHTTPError(http.StatusBadRequest, "email, password, and user type are required")
	}
	if !isValidEmailFormat(email) {
		return SignUpOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email format")
	}
	if len(in.Password) < 8 {
		return SignUpOutput{}, NewHTTPError(http.StatusBadRequest, "password too short")
	}

	role := model.Role(in.UserType)
	if role != model.RoleCustomer && role != model.RoleJobSeeker {
		return SignUpOutput{}, NewHTTPError(http.StatusBadRequest, "invalid user type")
	}

	// email重複チェック
	existing, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return SignUpOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing != nil {
		return SignUpOutput{}, NewHTTPError(http.StatusBadRequest, "user already exists with this email")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return SignUpOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := u.now()
	user := model.User{
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Address:      in.Address,
		City:         in.City,
		ZipCode:      in.ZipCode,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	//ユーザー本体と付帯プロフィールは同一トランザクションで作る
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Users().Create(ctx, &user); err != nil {
			return err
		}

		switch role {
		case model.RoleCustomer:
			return r.Users().CreateCustomerProfile(ctx, &model.CustomerProfile{
				UserID:               user.ID,
				NewsletterSubscribed: in.NewsletterSubscribed,
				Status:               "ACTIVE",
				CreatedAt:            now,
				UpdatedAt:            now,
			})
		case model.RoleJobSeeker:
			return r.Users().CreateJobSeekerProfile(ctx, &model.JobSeekerProfile{
				UserID:            user.ID,
				PositionInterest:  in.PositionInterest,
				ExperienceLevel:   in.ExperienceLevel,
				Availability:      in.Availability,
				Bio:               in.Bio,
				ApplicationStatus: "PENDING",
				JobAlerts:         in.JobAlerts,
				CreatedAt:         now,
				UpdatedAt:         now,
			})
		}
		return nil
	})
	if err != nil {
		return SignUpOutput{}, NewHTTPError(http.StatusInternalServerError, "failed to create user account")
	}

	return SignUpOutput{User: user}, nil
}

type SignInInput struct {
	Email    string
	Password string
}

type SignInOutput struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

func (u *AuthUsecase) SignIn(ctx context.Context, in SignInInput) (SignInOutput, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return SignInOutput{}, NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return SignInOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//ユーザー不存在とパスワード不一致は同じ文言にする
	if user == nil {
		return SignInOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return SignInOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if !user.IsActive {
		return SignInOutput{}, NewHTTPError(http.StatusUnauthorized, "user is inactive")
	}

	now := u.now()
	token, err := u.issueToken(user.ID, user.Role, now)
	if err != nil {
		return SignInOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	//最終ログイン時刻の更新失敗はログイン自体を失敗にしない
	_ = u.users.TouchLastLogin(ctx, user.ID, now)

	return SignInOutput{User: *user, Token: token}, nil
}

// HS256のアクセストークンを発行する
func (u *AuthUsecase) issueToken(userID int64, role model.Role, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(u.jwtSecret)
}

// メールチェック
func isValidEmailFormat(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
