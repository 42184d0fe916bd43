package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

type stubRepo struct {
	products map[uuid.UUID]*models.Product
	updates  map[string]any
	adjusted bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{products: map[uuid.UUID]*models.Product{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	s.products[product.ID] = product
	return product, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *product
	return &clone, nil
}

func (s *stubRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ProductList, error) {
	list := &ProductList{}
	for _, product := range s.products {
		if product.MerchantID == merchantID {
			list.Products = append(list.Products, *product)
		}
	}
	return list, nil
}

func (s *stubRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates = updates
	if name, ok := updates["name"].(string); ok {
		s.products[id].Name = name
	}
	if active, ok := updates["is_active"].(bool); ok {
		s.products[id].IsActive = active
	}
	return nil
}

func (s *stubRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	product := s.products[id]
	if product.Stock+delta < 0 {
		return false, nil
	}
	product.Stock += delta
	s.adjusted = true
	return true, nil
}

func TestCreateValidatesInput(t *testing.T) {
	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing merchant", CreateInput{Name: "x", Price: decimal.NewFromInt(1)}},
		{"blank name", CreateInput{MerchantID: uuid.New(), Name: "  ", Price: decimal.NewFromInt(1)}},
		{"zero price", CreateInput{MerchantID: uuid.New(), Name: "x", Price: decimal.Zero}},
		{"negative stock", CreateInput{MerchantID: uuid.New(), Name: "x", Price: decimal.NewFromInt(1), Stock: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.input); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestGetMapsNotFound(t *testing.T) {
	svc, _ := NewService(newStubRepo())
	_, err := svc.Get(context.Background(), uuid.New())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateChecksOwnership(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		MerchantID: uuid.New(),
		Name:       "argan oil",
		Price:      decimal.NewFromInt(120),
		Stock:      10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "renamed"
	_, err = svc.Update(ctx, UpdateInput{
		MerchantID: uuid.New(), // not the owner
		ProductID:  created.ID,
		Name:       &name,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	updated, err := svc.Update(ctx, UpdateInput{
		MerchantID: created.MerchantID,
		ProductID:  created.ID,
		Name:       &name,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "renamed" {
		t.Fatalf("expected rename, got %q", updated.Name)
	}
}

func TestAdjustStockRejectsZeroDelta(t *testing.T) {
	svc, _ := NewService(newStubRepo())
	_, err := svc.AdjustStock(context.Background(), AdjustStockInput{
		MerchantID: uuid.New(),
		ProductID:  uuid.New(),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
