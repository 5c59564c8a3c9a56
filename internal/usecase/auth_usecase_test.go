package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

type AuthUserRepoMock struct{ mock.Mock }

func (m *AuthUserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	user.ID = 1
	return args.Error(0)
}

func (m *AuthUserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *AuthUserRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	panic("not used in AuthUsecase tests")
}

func (m *AuthUserRepoMock) UpdateProfileFields(ctx context.Context, user model.User) error {
	panic("not used in AuthUsecase tests")
}

func (m *AuthUserRepoMock) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *AuthUserRepoMock) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	panic("not used in AuthUsecase tests")
}

func (m *AuthUserRepoMock) CreateCustomerProfile(ctx context.Context, p *model.CustomerProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *AuthUserRepoMock) CreateJobSeekerProfile(ctx context.Context, p *model.JobSeekerProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *AuthUserRepoMock) FindCustomerProfile(ctx context.Context, userID int64) (*model.CustomerProfile, error) {
	panic("not used in AuthUsecase tests")
}

func (m *AuthUserRepoMock) FindJobSeekerProfile(ctx context.Context, userID int64) (*model.JobSeekerProfile, error) {
	panic("not used in AuthUsecase tests")
}

func (m *AuthUserRepoMock) IncrementCustomerTotals(ctx context.Context, userID int64, amountMinor int64) error {
	panic("not used in AuthUsecase tests")
}

type authFixture struct {
	users *AuthUserRepoMock
	uc    *usecase.AuthUsecase
}

const testJWTSecret = "unit-test-jwt-secret"

func newAuthFixture() *authFixture {
	users := &AuthUserRepoMock{}
	tx := &PaymentTxManagerMock{Repos: &PaymentTxReposMock{users: users}}
	return &authFixture{
		users: users,
		uc:    usecase.NewAuthUsecase(tx, users, testJWTSecret),
	}
}

func TestSignUp_ValidationErrors(t *testing.T) {
	f := newAuthFixture()

	cases := []struct {
		name string
		in   usecase.SignUpInput
	}{
		{"missing email", usecase.SignUpInput{Password: "password123", UserType: "CUSTOMER"}},
		{"missing password", usecase.SignUpInput{Email: "a@b.com", UserType: "CUSTOMER"}},
		{"missing user type", usecase.SignUpInput{Email: "a@b.com", Password: "password123"}},
		{"invalid email", usecase.SignUpInput{Email: "not-an-email", Password: "password123", UserType: "CUSTOMER"}},
		{"short password", usecase.SignUpInput{Email: "a@b.com", Password: "short", UserType: "CUSTOMER"}},
		{"admin not self-servable", usecase.SignUpInput{Email: "a@b.com", Password: "password123", UserType: "ADMIN"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.SignUp(context.Background(), tc.in)
			he, ok := usecase.AsHTTPError(err)
			assert.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Status)
		})
	}

	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByEmail", mock.Anything, "a@b.com").
		Return(&model.User{ID: 9, Email: "a@b.com"}, nil)

	_, err := f.uc.SignUp(context.Background(), usecase.SignUpInput{
		Email:    "a@b.com",
		Password: "password123",
		UserType: "CUSTOMER",
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "user already exists with this email", he.Message)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignUp_CustomerCreatesUserAndProfile(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByEmail", mock.Anything, "a@b.com").Return((*model.User)(nil), nil)
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "a@b.com" &&
			u.Role == model.RoleCustomer &&
			u.IsActive &&
			u.PasswordHash != "" &&
			u.PasswordHash != "password123"
	})).Return(nil)
	f.users.On("CreateCustomerProfile", mock.Anything, mock.MatchedBy(func(p *model.CustomerProfile) bool {
		return p.UserID == int64(1) && p.NewsletterSubscribed && p.Status == "ACTIVE"
	})).Return(nil)

	out, err := f.uc.SignUp(context.Background(), usecase.SignUpInput{
		Email:                "a@b.com",
		Password:             "password123",
		UserType:             "CUSTOMER",
		FirstName:            "Ada",
		NewsletterSubscribed: true,
	})

	assert.NoError(t, err)
	assert.Equal(t, "a@b.com", out.User.Email)
	assert.Equal(t, model.RoleCustomer, out.User.Role)
	//平文パスワードを持ち出さない
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(out.User.PasswordHash), []byte("password123")))
	f.users.AssertExpectations(t)
}

func TestSignUp_JobSeekerCreatesMatchingProfile(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByEmail", mock.Anything, "j@b.com").Return((*model.User)(nil), nil)
	f.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.users.On("CreateJobSeekerProfile", mock.Anything, mock.MatchedBy(func(p *model.JobSeekerProfile) bool {
		return p.UserID == int64(1) &&
			p.PositionInterest == "warehouse" &&
			p.ApplicationStatus == "PENDING"
	})).Return(nil)

	_, err := f.uc.SignUp(context.Background(), usecase.SignUpInput{
		Email:            "j@b.com",
		Password:         "password123",
		UserType:         "JOB_SEEKER",
		PositionInterest: "warehouse",
	})

	assert.NoError(t, err)
	f.users.AssertExpectations(t)
	f.users.AssertNotCalled(t, "CreateCustomerProfile", mock.Anything, mock.Anything)
}

func signedInUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return &model.User{
		ID:           42,
		Email:        "a@b.com",
		PasswordHash: string(hash),
		Role:         model.RoleCustomer,
		IsActive:     true,
	}
}

func TestSignIn_Success(t *testing.T) {
	f := newAuthFixture()
	user := signedInUser(t, "password123")

	f.users.On("FindByEmail", mock.Anything, "a@b.com").Return(user, nil)
	f.users.On("TouchLastLogin", mock.Anything, int64(42), mock.Anything).Return(nil)

	out, err := f.uc.SignIn(context.Background(), usecase.SignInInput{
		Email:    "a@b.com",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), out.User.ID)
	assert.NotEmpty(t, out.Token)

	//発行したトークンの中身を確認
	parsed, err := jwt.Parse(out.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "CUSTOMER", claims["role"])
}

func TestSignIn_WrongPassword(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByEmail", mock.Anything, "a@b.com").
		Return(signedInUser(t, "password123"), nil)

	_, err := f.uc.SignIn(context.Background(), usecase.SignInInput{
		Email:    "a@b.com",
		Password: "wrong-password",
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	assert.Equal(t, "invalid email or password", he.Message)
}

// 不存在のユーザーでもパスワード不一致と同じ文言
func TestSignIn_UnknownEmailSameMessage(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByEmail", mock.Anything, "nobody@b.com").Return((*model.User)(nil), nil)

	_, err := f.uc.SignIn(context.Background(), usecase.SignInInput{
		Email:    "nobody@b.com",
		Password: "password123",
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	assert.Equal(t, "invalid email or password", he.Message)
}

func TestSignIn_InactiveUser(t *testing.T) {
	f := newAuthFixture()

	user := signedInUser(t, "password123")
	user.IsActive = false
	f.users.On("FindByEmail", mock.Anything, "a@b.com").Return(user, nil)

	_, err := f.uc.SignIn(context.Background(), usecase.SignInInput{
		Email:    "a@b.com",
		Password: "password123",
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	f.users.AssertNotCalled(t, "TouchLastLogin", mock.Anything, mock.Anything, mock.Anything)
}
