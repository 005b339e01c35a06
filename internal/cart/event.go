package cart

// 通知の種類
type EventKind string

const (
	EventAdded       EventKind = "added"       // 新しい明細を追加
	EventIncremented EventKind = "incremented" // 既存明細の数量+1
	EventRemoved     EventKind = "removed"
	EventCleared     EventKind = "cleared"
)

// Event はカート操作の通知。表示の仕方はホスト側が決める。
type Event struct {
	Kind        EventKind
	ProductID   string
	ProductName string
}

// Notifier は通知の受け口。失敗してもストアは気にしない。
type Notifier interface {
	Notify(Event)
}

// NotifierFunc は関数をNotifierとして使うためのアダプタ。
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type discardNotifier struct{}

func (discardNotifier) Notify(Event) {}
