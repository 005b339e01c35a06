package repository

import "context"

// TxRepos は1つのトランザクションに束ねたリポジトリ。
// 注文の作成・キャンセルは在庫と注文を同時に更新するのでここを通す。
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Inventory() InventoryRepository
	Products() ProductRepository
}

// TxFunc がエラーを返すとロールバック
type TxFunc func(r TxRepos) error

type TransactionManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}
