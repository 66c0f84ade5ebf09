package monitor

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"tickerfeed/internal/domain"
)

// Health 连接管理器暴露给巡检的最小接口
type Health interface {
	DataStatus() domain.DataStatus
	DetectAndHandleStaleConnection(threshold time.Duration) bool
}

type ServiceDeps struct {
	Symbols        []string
	Health         Health
	SummaryEvery   time.Duration // 汇总行输出周期，默认 1 分钟
	StaleThreshold time.Duration // 超过这么久没有任何行情就触发强制重连，默认 2 分钟
	Out            io.Writer     // 默认标准输出
	Clock          clock.Clock
}

// Service 周期性输出行情汇总，并顺带做假死巡检。操作系统睡眠期间
// 定时器全部停摆，唤醒后第一个周期就能把僵死的连接拉起来
type Service struct {
	deps ServiceDeps
	st   *State
	fmt  *Formatter
}

func NewService(deps ServiceDeps) *Service {
	if deps.SummaryEvery <= 0 {
		deps.SummaryEvery = time.Minute
	}
	if deps.StaleThreshold <= 0 {
		deps.StaleThreshold = 2 * time.Minute
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	return &Service{
		deps: deps,
		st:   NewState(deps.Symbols),
		fmt:  NewFormatter(),
	}
}

// Apply 收一条行情进统计，从连接管理器的 OnMessage 回调里调用
func (s *Service) Apply(t domain.Ticker) {
	s.st.Apply(t, s.deps.Clock.Now())
}

// State 暴露内部统计（展示层复用）
func (s *Service) State() *State { return s.st }

func (s *Service) Run(ctx context.Context) error {
	ticker := s.deps.Clock.Ticker(s.deps.SummaryEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if s.deps.Health != nil {
				if s.deps.Health.DetectAndHandleStaleConnection(s.deps.StaleThreshold) {
					log.Warn().Msg("stale connection recovered by periodic sweep")
				}
			}
			s.writeSummary(now)
		}
	}
}

func (s *Service) writeSummary(now time.Time) {
	status := domain.StatusOffline
	if s.deps.Health != nil {
		status = s.deps.Health.DataStatus()
	}
	line := s.fmt.Render(s.st, status, RenderSnapshot)
	if _, err := io.WriteString(s.deps.Out, now.Format("15:04:05")+" "+line+"\n"); err != nil {
		log.Debug().Err(err).Msg("summary write failed")
	}
}
