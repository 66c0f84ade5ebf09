package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"tickerfeed/internal/domain"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	// Color 关掉后输出纯文本，方便重定向到文件
	Color bool
}

func NewFormatter() *Formatter {
	return &Formatter{Color: true}
}

func (f *Formatter) paint(s, c string) string {
	if !f.Color {
		return s
	}
	return colorize(s, c)
}

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

// Render 把当前所有交易对压成一行：
// [FEED live] BTC-USDT 50000.00 ↑ +2.50%  ||  ETH-USDT 3000.00 ↓ -1.25%
func (f *Formatter) Render(st *State, status domain.DataStatus, mode RenderMode) string {
	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(f.paint("[FEED ", ansiDim))
	sb.WriteString(f.paint(status.String(), statusColor(status)))
	sb.WriteString(f.paint("] ", ansiDim))

	for i, ss := range st.Snapshot() {
		if i > 0 {
			sb.WriteString(f.paint("  ||  ", ansiDim))
		}
		sb.WriteString(ss.Symbol)
		sb.WriteString(" ")
		if !ss.Seen {
			sb.WriteString(f.paint("--", ansiYellow))
			continue
		}
		col := ansiYellow
		switch ss.Dir {
		case domain.DirectionUp:
			col = ansiGreen
		case domain.DirectionDown:
			col = ansiRed
		}
		sb.WriteString(f.paint(fmtPrice(ss.Last.Last)+dirGlyph(ss.Dir), col))
		sb.WriteString(" ")
		sb.WriteString(f.paint(fmt.Sprintf("%+.2f%%", ss.Last.ChangePercent), col))
	}

	if mode == RenderLive {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}

func statusColor(s domain.DataStatus) string {
	switch s {
	case domain.StatusLive:
		return ansiGreen
	case domain.StatusDegraded:
		return ansiYellow
	default:
		return ansiRed
	}
}

func dirGlyph(d domain.Direction) string {
	switch d {
	case domain.DirectionUp:
		return "↑"
	case domain.DirectionDown:
		return "↓"
	default:
		return " "
	}
}

func fmtPrice(p float64) string {
	switch {
	case p >= 1:
		return strconv.FormatFloat(p, 'f', 2, 64)
	case p > 0:
		return strconv.FormatFloat(p, 'g', 6, 64)
	default:
		return "--"
	}
}
