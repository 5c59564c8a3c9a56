package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) ListAdmin(ctx context.Context, page int, limit int) ([]model.Product, int64, error) {
	panic("not used in ProductUsecase tests")
}

func (m *ProductRepoMock) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SetActive(ctx context.Context, productID int64, active bool) error {
	args := m.Called(ctx, productID, active)
	return args.Error(0)
}

type ProductAuditRepoMock struct{ mock.Mock }

func (m *ProductAuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *ProductAuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	panic("not used in ProductUsecase tests")
}

func newProductFixture() (*ProductRepoMock, *ProductAuditRepoMock, *usecase.ProductUsecase) {
	products := &ProductRepoMock{}
	audits := &ProductAuditRepoMock{}
	return products, audits, usecase.NewProductUsecase(products, audits)
}

func TestListPublicProducts_ValidatesQuery(t *testing.T) {
	_, _, uc := newProductFixture()

	cases := []usecase.ListProductsInput{
		{Page: 0, Limit: 20},
		{Page: 1, Limit: 0},
		{Page: 1, Limit: 101},
		{Page: 1, Limit: 20, Sort: "cheapest"},
	}

	for _, in := range cases {
		_, err := uc.ListPublicProducts(context.Background(), in)
		he, ok := usecase.AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Status)
	}
}

func TestListPublicProducts_TrimsFilters(t *testing.T) {
	products, _, uc := newProductFixture()

	products.On("ListPublic", mock.Anything, repo.ProductListQuery{
		Page:     1,
		Limit:    20,
		Q:        "sofa",
		Category: "living",
		Sort:     "price_asc",
	}).Return([]model.Product{{ID: 1, Name: "S203 1-Seater"}}, int64(1), nil)

	out, err := uc.ListPublicProducts(context.Background(), usecase.ListProductsInput{
		Page:     1,
		Limit:    20,
		Q:        "  sofa  ",
		Category: " living ",
		Sort:     "price_asc",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Len(t, out.Items, 1)
}

func TestGetProductDetail_HidesInactiveProduct(t *testing.T) {
	products, _, uc := newProductFixture()

	products.On("FindByID", mock.Anything, int64(5)).
		Return(model.Product{ID: 5, Name: "Discontinued", IsActive: false}, nil)

	_, err := uc.GetProductDetail(context.Background(), 5)
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestAdminCreateProduct_WritesAuditLog(t *testing.T) {
	products, audits, uc := newProductFixture()

	products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Name == "S203 1-Seater" && p.PriceMinor == 18600
	})).Return(model.Product{ID: 11, Name: "S203 1-Seater", PriceMinor: 18600}, nil)
	audits.On("Create", mock.Anything, mock.MatchedBy(func(log model.AuditLog) bool {
		return log.Action == model.AuditActionCreateProduct &&
			log.ActorUserID == int64(99) &&
			log.ResourceID == int64(11)
	})).Return(nil)

	id, err := uc.AdminCreateProduct(context.Background(), 99, usecase.AdminProductInput{
		Name:       " S203 1-Seater ",
		PriceMinor: 18600,
		InStock:    true,
		IsActive:   true,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(11), id)
	audits.AssertExpectations(t)
}

// 監査ログの保存失敗は操作自体を失敗にしない
func TestAdminDeactivateProduct_AuditFailureIsNotFatal(t *testing.T) {
	products, audits, uc := newProductFixture()

	products.On("FindByID", mock.Anything, int64(5)).
		Return(model.Product{ID: 5, Name: "Sofa", IsActive: true}, nil)
	products.On("SetActive", mock.Anything, int64(5), false).Return(nil)
	audits.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	err := uc.AdminDeactivateProduct(context.Background(), 99, 5)
	assert.NoError(t, err)
	products.AssertExpectations(t)
}
