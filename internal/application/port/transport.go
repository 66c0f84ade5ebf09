package port

import "context"

// EventKind 传输层事件类型
type EventKind int

const (
	EventOpen EventKind = iota
	EventMessage
	EventClose
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	default:
		return "error"
	}
}

// Event 是传输层向状态机投递的事件。所有网络回调（连上、收帧、
// 断开、出错）都收敛成这一种形状，方便用假传输做单元测试
type Event struct {
	Kind    EventKind
	Payload []byte // EventMessage 的原始帧
	Err     error  // EventError 携带的底层错误
}

// Transport 是一条已经发起的连接的句柄。Send 在 EventOpen 之前调用
// 会失败；Close 幂等，关闭后底层读循环以 EventClose 收尾
type Transport interface {
	Send(v any) error
	Close() error
}

// Dialer 异步发起连接：立即返回句柄，连接结果通过 onEvent 回调投递。
// onEvent 不会在 Dial 调用栈内同步触发
type Dialer interface {
	Dial(ctx context.Context, url string, onEvent func(Event)) Transport
}
