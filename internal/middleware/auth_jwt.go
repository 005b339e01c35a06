package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // string
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

var errInvalidToken = errors.New("invalid token")

// アクセストークンから取り出した本人情報
type identity struct {
	UserID       string
	Role         string
	TokenVersion int
}

// AuthJWT はBearerトークンを検証してcontextに本人情報を入れる。
func AuthJWT(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c)
			}
			id, err := parseAccessToken(raw, key)
			if err != nil {
				return unauthorized(c)
			}

			c.Set(CtxUserIDKey, id.UserID)
			c.Set(CtxUserRoleKey, id.Role)
			c.Set(CtxTokenVersionKey, id.TokenVersion)
			return next(c)
		}
	}
}

// "Bearer xxx" から xxx を抜く
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// HS256・exp必須。sub/role/tvが揃っていないトークンは通さない
func parseAccessToken(raw string, key []byte) (identity, error) {
	tok, err := jwt.ParseWithClaims(raw, jwt.MapClaims{}, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return identity{}, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return identity{}, errInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return identity{}, errInvalidToken
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return identity{}, errInvalidToken
	}
	tv, err := claimInt(claims["tv"])
	if err != nil || tv < 0 {
		return identity{}, errInvalidToken
	}
	return identity{UserID: sub, Role: role, TokenVersion: tv}, nil
}

// JSONの数値はfloat64で来る
func claimInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, err
		}
		return n, nil
	}
	return 0, errInvalidToken
}

// contextに入っている本人情報（AuthJWTの後で使う）
func identityFrom(c echo.Context) (identity, bool) {
	userID, _ := c.Get(CtxUserIDKey).(string)
	role, _ := c.Get(CtxUserRoleKey).(string)
	tv, ok := c.Get(CtxTokenVersionKey).(int)
	if userID == "" || !ok {
		return identity{}, false
	}
	return identity{UserID: userID, Role: role, TokenVersion: tv}, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, errorResponse{Error: "forbidden"})
}
