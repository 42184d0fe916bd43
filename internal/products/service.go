package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

type service struct {
	repo Repository
}

// NewService builds the product service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	product := &models.Product{
		ID:          uuid.New(),
		MerchantID:  input.MerchantID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		IsActive:    true,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ProductList, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	list, err := s.repo.ListByMerchant(ctx, merchantID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Product, error) {
	product, err := s.ownedProduct(ctx, input.MerchantID, input.ProductID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = *input.Price
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.repo.Update(ctx, product.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.Get(ctx, product.ID)
}

func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*models.Product, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock delta cannot be zero")
	}
	product, err := s.ownedProduct(ctx, input.MerchantID, input.ProductID)
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.AdjustStock(ctx, product.ID, input.Delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}
	if !changed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot go negative")
	}
	return s.Get(ctx, product.ID)
}

func (s *service) SetActive(ctx context.Context, merchantID, productID uuid.UUID, active bool) error {
	product, err := s.ownedProduct(ctx, merchantID, productID)
	if err != nil {
		return err
	}
	if product.IsActive == active {
		return nil
	}
	if err := s.repo.Update(ctx, product.ID, map[string]any{"is_active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle product")
	}
	return nil
}

func (s *service) ownedProduct(ctx context.Context, merchantID, productID uuid.UUID) (*models.Product, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.MerchantID != merchantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to merchant")
	}
	return product, nil
}
