package domain

// ConnectionState 连接管理器内部状态机的状态
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateOpen
	StateRetrying
	StateCooldown
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateRetrying:
		return "retrying"
	case StateCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// DataStatus 对外可观测的数据健康度，与内部状态相关但不等同：
// Retrying 对外表现为 Degraded，Cooldown 和失活检测表现为 Offline
type DataStatus int

const (
	StatusOffline DataStatus = iota
	StatusDegraded
	StatusLive
)

func (s DataStatus) String() string {
	switch s {
	case StatusLive:
		return "live"
	case StatusDegraded:
		return "degraded"
	default:
		return "offline"
	}
}
