package repository

import (
	"context"
	"errors"
	"strings"

	"cakedelight/internal/domain/model"
	domainrepo "cakedelight/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// メールの一意制約違反は ErrEmailTaken（同時登録）
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainrepo.ErrEmailTaken
	}
	return err
}

func (r *userGormRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainrepo.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// メールは小文字で保存している
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *userGormRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// ログイン時刻などの変わる列だけ更新する（パスワードとメールは触らない）
func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{ID: user.ID}).
		Select("name", "role", "token_version", "is_active", "last_login_at", "updated_at").
		Updates(user)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}
