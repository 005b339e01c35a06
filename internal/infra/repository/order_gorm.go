package repository

import (
	"context"
	"errors"

	"cakedelight/internal/domain/model"
	repo "cakedelight/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) error {
	return r.db.WithContext(ctx).Create(&order).Error
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus) error {
	// 同時更新は行ロック待ちのあと status の条件で弾かれる
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrStatusConflict
	}
	return nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID string, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//user_id 絞り込み
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("created_at desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

type statusRow struct {
	Status  model.OrderStatus
	Count   int64
	Revenue decimal.Decimal
}

// ステータスごとの件数と売上（キャンセルは売上に含めない）
func (r *OrderGormRepository) Stats(ctx context.Context) (repo.OrderStats, error) {
	var rows []statusRow
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_price), 0) AS revenue").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return repo.OrderStats{}, err
	}

	out := repo.OrderStats{
		Revenue:       decimal.Zero,
		CountByStatus: make(map[model.OrderStatus]int64, len(rows)),
	}
	for _, row := range rows {
		out.OrderCount += row.Count
		out.CountByStatus[row.Status] = row.Count
		if row.Status != model.OrderStatusCanceled {
			out.Revenue = out.Revenue.Add(row.Revenue)
		}
	}
	return out, nil
}
