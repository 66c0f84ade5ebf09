package domain

// Direction represents the price movement direction
type Direction int

const (
	DirectionSame Direction = 0
	DirectionUp   Direction = +1
	DirectionDown Direction = -1
)

// PriceState 记录单个交易对最近一次的价格，用于判断涨跌方向
// 以及是否需要重绘（价格没变就不必向展示层推送）
type PriceState struct {
	Last      float64
	Prev      float64
	HasValue  bool
	Direction Direction
}

// Update records a new price and reports whether it differs from the
// previous one.
func (ps *PriceState) Update(price float64) bool {
	if ps.HasValue && price == ps.Last {
		ps.Direction = DirectionSame
		return false
	}

	if !ps.HasValue {
		ps.HasValue = true
		ps.Prev = price
		ps.Last = price
		ps.Direction = DirectionSame
		return true
	}

	ps.Prev = ps.Last
	ps.Last = price
	switch {
	case price > ps.Prev:
		ps.Direction = DirectionUp
	case price < ps.Prev:
		ps.Direction = DirectionDown
	default:
		ps.Direction = DirectionSame
	}
	return true
}
