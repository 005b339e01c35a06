package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"cakedelight/internal/domain/model"
	"cakedelight/internal/repository"
)

// 会員登録の入力
type RegisterUserInput struct {
	Email    string
	Password string
	Name     string
	// 空ならUSER。VENDORは自己登録可、ADMINは不可。
	Role model.Role
}

// 会員登録の出力
type RegisterUserOutput struct {
	User model.User `json:"user"`
}

var (
	// 入力が不正
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidRole        = errors.New("invalid role")

	// 競合
	ErrEmailAlreadyExists = errors.New("email already exists")
)

const minPasswordLen = 8

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	idGen    IDGenerator
	clock    Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	idGen IDGenerator,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		idGen:    idGen,
		clock:    clock,
	}
}

// 会員登録実行
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	var out RegisterUserOutput

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !isValidEmailFormat(email) {
		return out, ErrInvalidEmailFormat
	}
	if len(in.Password) < minPasswordLen {
		return out, ErrPasswordTooShort
	}
	if isWeakPassword(in.Password) {
		return out, ErrWeakPassword
	}

	role := in.Role
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser, model.RoleVendor:
	default:
		return out, ErrInvalidRole
	}

	// email重複チェック
	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return out, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return out, err
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	now := u.clock.Now()
	user := &model.User{
		ID:           u.idGen.NewID(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
		Role:         role,
		TokenVersion: 0,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// DBへ保存（同時登録の競合はここで出る）
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return out, ErrEmailAlreadyExists
		}
		return out, err
	}

	out.User = *user
	out.User.PasswordHash = ""
	return out, nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// パスワードのよくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwertyuiop":   {},
		"letmein1":     {},
		"admin123":     {},
		"cakecake":     {},
	}

	_, ok := weak[normalized]
	return ok
}
