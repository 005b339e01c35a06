package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"cakedelight/internal/domain/model"
	repo "cakedelight/internal/repository"

	"github.com/shopspring/decimal"
)

// 商品を作成するときのID
type IDGenerator interface {
	NewID() string
}

// 管理画面の操作者
type Actor struct {
	UserID string
	Role   model.Role
}

func (a Actor) isAdmin() bool { return a.Role == model.RoleAdmin }

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	idGen         IDGenerator
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	idGen IDGenerator,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		idGen:         idGen,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) ListCategories(ctx context.Context) ([]string, error) {
	cats, err := u.productRepo.ListCategories(ctx)
	if err != nil {
		return []string{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cats, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID string) (model.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

// ベンダー自身の商品一覧（非公開も含む）
func (u *ProductUsecase) ListVendorProducts(ctx context.Context, actor Actor, page, limit int) (ProductListOutput, error) {
	if actor.UserID == "" {
		return ProductListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{Page: page, Limit: limit, VendorID: actor.UserID})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ProductListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

type AdminCreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Image       string
	Stock       int64
	IsActive    bool
}

func validateProductInput(in AdminCreateProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return NewHTTPError(http.StatusBadRequest, "category required")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, actor Actor, in AdminCreateProductInput) (model.Product, error) {
	if actor.UserID == "" {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	now := time.Now()
	p := model.Product{
		ID:          u.idGen.NewID(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Image:       in.Image,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// ベンダーが作った商品は所有者を記録
	if actor.Role == model.RoleVendor {
		p.VendorID = actor.UserID
	}

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

// ベンダーは自分の商品だけ、管理者はすべて変更できる
func (u *ProductUsecase) authorizeProduct(ctx context.Context, actor Actor, productID string) (model.Product, error) {
	if actor.UserID == "" {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(productID) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !actor.isAdmin() && p.VendorID != actor.UserID {
		return model.Product{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return p, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, actor Actor, productID string, in AdminCreateProductInput) error {
	if err := validateProductInput(in); err != nil {
		return err
	}
	if _, err := u.authorizeProduct(ctx, actor, productID); err != nil {
		return err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Image:       in.Image,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
		UpdatedAt:   time.Now(),
	})
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, actor Actor, productID string) error {
	if _, err := u.authorizeProduct(ctx, actor, productID); err != nil {
		return err
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, actor Actor, productID string, newStock int64) error {
	if newStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if _, err := u.authorizeProduct(ctx, actor, productID); err != nil {
		return err
	}

	//在庫の現在値を更新
	if err := u.inventoryRepo.SetStock(ctx, productID, newStock); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
