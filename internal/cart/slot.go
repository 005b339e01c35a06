package cart

// StorageKey はカートを保存するスロットのキー。
const StorageKey = "cart"

// Slot は永続的なkey-value保存先（ブラウザのlocalStorage相当）。
// 実装は internal/infra/slot にある。
type Slot interface {
	// Read はキーの値を返す。無ければ found=false。
	Read(key string) (value []byte, found bool, err error)
	Write(key string, value []byte) error
}
