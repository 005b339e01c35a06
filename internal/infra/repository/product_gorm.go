package repository

import (
	"context"
	"errors"
	"strings"

	"cakedelight/internal/domain/model"
	repo "cakedelight/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開商品のみを、検索/カテゴリ/価格帯/ソート/ページング付きで返す。
// VendorIDが指定されたらそのベンダーの商品を非公開も含めて返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	if q.VendorID != "" {
		tx = tx.Where("vendor_id = ?", q.VendorID)
	} else {
		// 公開（is_active=true）かつ、商品削除されていないものだけ
		tx = tx.Where("is_active = ?", true)
	}

	// q nameとdescriptionを対象
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}

	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	//sort
	switch q.Sort {
	case "price_asc":
		tx = tx.Order("price asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("price desc").Order("id desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// 公開商品のカテゴリ一覧
func (r *ProductGormRepository) ListCategories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("is_active = ?", true).
		Distinct().
		Order("category asc").
		Pluck("category", &cats).Error
	if err != nil {
		return []string{}, err
	}
	return cats, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

// 在庫が閾値以下の商品
func (r *ProductGormRepository) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	var items []model.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND stock <= ?", true, threshold).
		Order("stock asc").Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.Product{}, err
	}
	return items, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"category":    p.Category,
		"image":       p.Image,
		"stock":       p.Stock,
		"is_active":   p.IsActive,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除（論理削除）
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
