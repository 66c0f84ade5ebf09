// Package wsconn 持有到单一交易所的唯一一条行情连接，负责整个
// 存活闭环：指数退避重连、重试耗尽后的冷却探测、基于心跳的
// 假死检测。所有失败都收敛为 DataStatus 变化，不向调用方抛错
package wsconn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"tickerfeed/internal/application/port"
	"tickerfeed/internal/domain"
	"tickerfeed/internal/infrastructure/exchange"
	"tickerfeed/internal/infrastructure/refprice"
)

// Config 连接韧性参数。零值字段在 New 里落到默认值：
// 退避 1s 起步翻倍、封顶 30s，5 次失败后进入 60s 间隔的冷却探测
type Config struct {
	MaxRetries       int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	WatchdogInterval time.Duration // 心跳检查周期
	HeartbeatTimeout time.Duration // 超过这么久没有行情帧就判定假死
	CooldownInterval time.Duration // 冷却模式下的探测间隔
	PrefetchTimeout  time.Duration // 订阅前参考价预取的总时限
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:       5,
		BaseDelay:        time.Second,
		MaxDelay:         30 * time.Second,
		WatchdogInterval: 3 * time.Second,
		HeartbeatTimeout: 8 * time.Second,
		CooldownInterval: 60 * time.Second,
		PrefetchTimeout:  10 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = d.WatchdogInterval
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = d.HeartbeatTimeout
	}
	if c.CooldownInterval <= 0 {
		c.CooldownInterval = d.CooldownInterval
	}
	if c.PrefetchTimeout <= 0 {
		c.PrefetchTimeout = d.PrefetchTimeout
	}
}

// Callbacks 调用方订阅的回调，全部可选。回调在锁外触发
type Callbacks struct {
	OnMessage      func(domain.Ticker)
	OnStatusChange func(domain.DataStatus)
	OnOpen         func()
	OnClose        func()
	OnError        func()
}

// Deps 组装一个 Manager 所需的依赖，缺省值见 New
type Deps struct {
	Config    Config
	Callbacks Callbacks
	Dialer    port.Dialer
	RefCache  *refprice.Cache
	Clock     clock.Clock
	// Normalize 默认用 exchange.Normalize，测试可替换
	Normalize func([]byte) (domain.Ticker, bool)
}

// Manager 是单写者状态机：任一时刻至多一条传输是"当前的"。
// 每次 Connect/Disconnect/重连都会递增 generation，旧传输的
// 在途事件因 generation 不匹配被整体忽略，定时器同理
type Manager struct {
	cfg    Config
	cb     Callbacks
	dialer port.Dialer
	refs   *refprice.Cache
	clk    clock.Clock
	norm   func([]byte) (domain.Ticker, bool)

	mu         sync.Mutex
	gen        uint64
	state      domain.ConnectionState
	status     domain.DataStatus
	transport  port.Transport
	profile    *exchange.Profile
	coins      []string
	manual     bool
	inCooldown bool
	retryCount int
	lastMsgAt  time.Time

	retryTimer    *clock.Timer
	watchdogTimer *clock.Timer
	cooldownTimer *clock.Timer
}

func New(d Deps) *Manager {
	d.Config.applyDefaults()
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Normalize == nil {
		d.Normalize = exchange.Normalize
	}
	if d.RefCache == nil {
		d.RefCache = refprice.New(refprice.NewMemoryStore())
	}
	return &Manager{
		cfg:    d.Config,
		cb:     d.Callbacks,
		dialer: d.Dialer,
		refs:   d.RefCache,
		clk:    d.Clock,
		norm:   d.Normalize,
		state:  domain.StateDisconnected,
		status: domain.StatusOffline,
	}
}

// Connect 切换到指定交易所和币种列表。任何已有传输（连同它挂着的
// 定时器和在途事件）都被整体作废，之后预取参考价并异步建连。
// 只有参数错误会返回 error，传输层失败走状态机自愈
func (m *Manager) Connect(exchangeName string, symbols []string) error {
	p, ok := exchange.Lookup(exchangeName)
	if !ok {
		return fmt.Errorf("unknown exchange %q", exchangeName)
	}
	coins := exchange.BaseList(symbols)
	if len(coins) == 0 {
		return errors.New("symbols empty")
	}

	m.mu.Lock()
	old := m.supersedeLocked()
	m.manual = false
	m.inCooldown = false
	m.retryCount = 0
	m.profile = p
	m.coins = coins
	m.state = domain.StateConnecting
	gen := m.gen
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	log.Info().Str("exchange", p.Name).Strs("coins", coins).Msg("connect requested")
	go m.open(gen)
	return nil
}

// Disconnect 主动断开：取消所有定时器，关闭传输且不触发任何重连。
// 这是唯一的取消入口
func (m *Manager) Disconnect() {
	var notify []func()
	m.mu.Lock()
	m.manual = true
	old := m.supersedeLocked()
	m.inCooldown = false
	m.retryCount = 0
	m.state = domain.StateDisconnected
	m.setStatusLocked(domain.StatusOffline, &notify)
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	runAll(notify)
	log.Info().Msg("disconnected")
}

// DetectAndHandleStaleConnection 供调用方主动探测假死（比如界面
// 重新可见时）：最后一帧比 threshold 更老就标记 Offline 并立即
// 重连，返回是否检测到失活。用于补偿宿主环境挂起定时器的情况
func (m *Manager) DetectAndHandleStaleConnection(threshold time.Duration) bool {
	m.mu.Lock()
	if m.profile == nil || m.manual || m.lastMsgAt.IsZero() {
		m.mu.Unlock()
		return false
	}
	idle := m.clk.Now().Sub(m.lastMsgAt)
	if idle <= threshold {
		m.mu.Unlock()
		return false
	}
	var notify []func()
	m.setStatusLocked(domain.StatusOffline, &notify)
	name := m.profile.Name
	coins := append([]string(nil), m.coins...)
	m.mu.Unlock()

	runAll(notify)
	log.Warn().Dur("idle", idle).Dur("threshold", threshold).Msg("stale connection detected, reconnecting")
	_ = m.Connect(name, coins)
	return true
}

// OnNetworkRestore 网络恢复提示（设备唤醒、链路切换）：
// 若当前没有连接也不在连接中，立即退出冷却、清零退避并重连，
// 不等调度好的延迟或探测间隔
func (m *Manager) OnNetworkRestore() {
	m.mu.Lock()
	if m.profile == nil || m.manual ||
		m.state == domain.StateOpen || m.state == domain.StateConnecting {
		m.mu.Unlock()
		return
	}
	name := m.profile.Name
	coins := append([]string(nil), m.coins...)
	m.mu.Unlock()

	log.Info().Msg("network restore hint, reconnecting now")
	_ = m.Connect(name, coins)
}

func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == domain.StateOpen
}

func (m *Manager) IsConnecting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == domain.StateConnecting
}

func (m *Manager) DataStatus() domain.DataStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) InCooldownMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inCooldown
}

func (m *Manager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RetryCount 当前连续失败次数（成功打开后清零）
func (m *Manager) RetryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retryCount
}

// open 预取参考价后发起拨号。gen 在预取期间可能已被新的
// Connect/Disconnect 作废，拨号前要复核
func (m *Manager) open(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.manual {
		m.mu.Unlock()
		return
	}
	p := m.profile
	coins := append([]string(nil), m.coins...)
	m.mu.Unlock()

	if p.NeedsPrefetch {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.PrefetchTimeout)
		m.refs.Prefetch(ctx, p, coins)
		cancel()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.manual {
		return
	}
	m.transport = m.dialer.Dial(context.Background(), p.WsURL, func(ev port.Event) {
		m.handleEvent(gen, ev)
	})
}

// handleEvent 是唯一的状态转移入口：传输层的四种事件都从这里
// 进入状态机。gen 不匹配说明事件来自已被替换的旧传输，整体忽略
func (m *Manager) handleEvent(gen uint64, ev port.Event) {
	var notify []func()
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}

	switch ev.Kind {
	case port.EventOpen:
		m.state = domain.StateOpen
		m.retryCount = 0
		m.inCooldown = false
		stopTimer(&m.retryTimer)
		stopTimer(&m.cooldownTimer)
		m.lastMsgAt = m.clk.Now()
		m.setStatusLocked(domain.StatusLive, &notify)
		m.subscribeLocked()
		m.scheduleWatchdogLocked(gen)
		log.Info().Str("exchange", m.profile.Name).Msg("ws connected")
		if m.cb.OnOpen != nil {
			notify = append(notify, m.cb.OnOpen)
		}

	case port.EventMessage:
		t, ok := m.norm(ev.Payload)
		if !ok {
			break // 未识别的帧直接丢弃
		}
		m.lastMsgAt = m.clk.Now()
		m.refs.FillReference(context.Background(), &t)
		if m.cb.OnMessage != nil {
			tk := t
			notify = append(notify, func() { m.cb.OnMessage(tk) })
		}

	case port.EventClose:
		stopTimer(&m.watchdogTimer)
		m.transport = nil
		m.state = domain.StateDisconnected
		if m.cb.OnClose != nil {
			notify = append(notify, m.cb.OnClose)
		}
		if !m.manual {
			if !m.inCooldown {
				m.setStatusLocked(domain.StatusDegraded, &notify)
			}
			m.scheduleRetryLocked(&notify)
		}

	case port.EventError:
		log.Warn().Err(ev.Err).Msg("transport error")
		if m.cb.OnError != nil {
			notify = append(notify, m.cb.OnError)
		}
		// 错误之后跟着 close 事件，重连在那里处理
	}

	m.mu.Unlock()
	runAll(notify)
}

func (m *Manager) subscribeLocked() {
	frames := m.profile.BuildSubscribe(m.coins)
	for _, f := range frames {
		if err := m.transport.Send(f); err != nil {
			log.Error().Err(err).Str("exchange", m.profile.Name).Msg("subscribe send failed")
			return
		}
	}
	log.Info().Str("exchange", m.profile.Name).Int("frames", len(frames)).Msg("subscribed")
}

// scheduleRetryLocked 异常断开后的重连调度：冷却中不做任何事；
// 超出最大重试进入冷却探测，否则按指数退避安排单次重连
func (m *Manager) scheduleRetryLocked(notify *[]func()) {
	if m.inCooldown {
		return
	}
	m.retryCount++
	if m.retryCount > m.cfg.MaxRetries {
		m.inCooldown = true
		m.state = domain.StateCooldown
		m.setStatusLocked(domain.StatusOffline, notify)
		m.scheduleCooldownLocked()
		log.Warn().Int("max_retries", m.cfg.MaxRetries).
			Dur("probe_interval", m.cfg.CooldownInterval).
			Msg("retries exhausted, entering cooldown probing")
		return
	}

	m.state = domain.StateRetrying
	delay := m.retryDelayLocked()
	stopTimer(&m.retryTimer)
	gen := m.gen
	m.retryTimer = m.clk.AfterFunc(delay, func() { m.onRetryTimer(gen) })
	log.Warn().Int("attempt", m.retryCount).Int("max", m.cfg.MaxRetries).
		Dur("delay", delay).Msg("reconnect scheduled")
}

// retryDelayLocked 1s → 2s → 4s → 8s → 16s → 30s (封顶)
func (m *Manager) retryDelayLocked() time.Duration {
	n := m.retryCount - 1
	if n > 20 {
		n = 20
	}
	d := m.cfg.BaseDelay * (1 << uint(n))
	if d <= 0 || d > m.cfg.MaxDelay {
		d = m.cfg.MaxDelay
	}
	return d
}

func (m *Manager) onRetryTimer(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.manual {
		m.mu.Unlock()
		return
	}
	m.retryTimer = nil
	g := m.reconnectLocked()
	m.mu.Unlock()
	m.open(g)
}

// scheduleCooldownLocked 固定间隔的冷却探测，每次触发先自续期，
// 探测失败也会继续，直到某次成功打开才停
func (m *Manager) scheduleCooldownLocked() {
	stopTimer(&m.cooldownTimer)
	m.cooldownTimer = m.clk.AfterFunc(m.cfg.CooldownInterval, m.onCooldownProbe)
}

func (m *Manager) onCooldownProbe() {
	m.mu.Lock()
	if !m.inCooldown || m.manual {
		m.mu.Unlock()
		return
	}
	// 每次探测隐式清零重试计数，并在尝试前先排好下一次探测
	m.retryCount = 0
	m.scheduleCooldownLocked()
	g := m.reconnectLocked()
	m.mu.Unlock()

	log.Info().Msg("cooldown probe, attempting reconnect")
	m.open(g)
}

// scheduleWatchdogLocked 心跳看门狗：每个周期检查一次，行情帧
// 断流超过心跳超时就强制关闭传输，走与异常断开相同的重连路径。
// 专治"连接还开着但早就不吐数据"的半开状态
func (m *Manager) scheduleWatchdogLocked(gen uint64) {
	stopTimer(&m.watchdogTimer)
	m.watchdogTimer = m.clk.AfterFunc(m.cfg.WatchdogInterval, func() { m.onWatchdogTick(gen) })
}

func (m *Manager) onWatchdogTick(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state != domain.StateOpen {
		m.mu.Unlock()
		return
	}
	idle := m.clk.Now().Sub(m.lastMsgAt)
	if idle > m.cfg.HeartbeatTimeout {
		t := m.transport
		m.mu.Unlock()
		log.Warn().Dur("idle", idle).Msg("heartbeat timeout, force closing transport")
		if t != nil {
			_ = t.Close()
		}
		return
	}
	m.scheduleWatchdogLocked(gen)
	m.mu.Unlock()
}

// reconnectLocked 作废当前 generation 并进入 Connecting，
// 保留重试/冷却计数（与 Connect 的"从头来过"不同）
func (m *Manager) reconnectLocked() uint64 {
	m.gen++
	stopTimer(&m.retryTimer)
	stopTimer(&m.watchdogTimer)
	m.transport = nil
	m.state = domain.StateConnecting
	return m.gen
}

// supersedeLocked 整体作废当前传输：递增 generation、停掉全部
// 定时器，返回旧传输句柄由调用方在锁外关闭。旧传输之后的
// open/message/close 事件都会因 generation 不匹配被忽略，
// 等效于"摘掉 close 回调再关"
func (m *Manager) supersedeLocked() port.Transport {
	m.gen++
	stopTimer(&m.retryTimer)
	stopTimer(&m.watchdogTimer)
	stopTimer(&m.cooldownTimer)
	old := m.transport
	m.transport = nil
	return old
}

func (m *Manager) setStatusLocked(s domain.DataStatus, notify *[]func()) {
	if m.status == s {
		return
	}
	m.status = s
	log.Info().Str("status", s.String()).Msg("data status changed")
	if m.cb.OnStatusChange != nil {
		cb := m.cb.OnStatusChange
		*notify = append(*notify, func() { cb(s) })
	}
}

func stopTimer(t **clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func runAll(fns []func()) {
	for _, f := range fns {
		f()
	}
}
