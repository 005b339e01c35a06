package cart

import (
	"errors"
	"fmt"

	"cakedelight/internal/domain/model"

	jsoniter "github.com/json-iterator/go"
)

// ErrMalformedState は保存データがカートとして読めないとき。
var ErrMalformedState = errors.New("malformed cart state")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode は明細を保存用のJSONにする。
func Encode(lines []model.CartLine) ([]byte, error) {
	if lines == nil {
		lines = []model.CartLine{}
	}
	return json.Marshal(lines)
}

// Decode は保存データを明細に戻す。
// 形が違う・IDが空・数量が1未満なら ErrMalformedState。
// 同じIDが重複していたら数量を合算して1明細にする。
func Decode(data []byte) ([]model.CartLine, error) {
	var raw []*model.CartLine
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if raw == nil {
		// "null" は配列ではない
		return nil, fmt.Errorf("%w: not a list", ErrMalformedState)
	}

	lines := make([]model.CartLine, 0, len(raw))
	index := make(map[string]int, len(raw))
	for i, l := range raw {
		if l == nil {
			return nil, fmt.Errorf("%w: entry %d is null", ErrMalformedState, i)
		}
		if l.Product.ID == "" {
			return nil, fmt.Errorf("%w: entry %d has no product id", ErrMalformedState, i)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: entry %d has quantity %d", ErrMalformedState, i, l.Quantity)
		}
		if at, ok := index[l.Product.ID]; ok {
			lines[at].Quantity += l.Quantity
			continue
		}
		index[l.Product.ID] = len(lines)
		lines = append(lines, *l)
	}
	return lines, nil
}
