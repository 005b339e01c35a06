package repository

import (
	"cakedelight/internal/domain/model"
	"context"
	"errors"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// 同じメールが登録済み
var ErrEmailTaken = errors.New("email already registered")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// 最後のログインなど
	Update(ctx context.Context, user *model.User) error
}
