package deck

import (
	"math/rand/v2"
	"slices"
)

// 地产牌编号范围
const (
	MinProperty = 1
	MaxProperty = 30
)

// chequeValues 支票面额（含一张 0 元支票，无重复）
var chequeValues = []int{
	0, 2000, 3000, 4000, 5000, 6000, 7000, 8000,
	9000, 10000, 11000, 12000, 13000, 14000, 15000,
}

// Deck 定义一叠牌，牌面用整数表示，从头部发牌
type Deck []int

// NewPropertyDeck 创建未洗的地产牌 1..30
func NewPropertyDeck() Deck {
	d := make(Deck, 0, MaxProperty-MinProperty+1)
	for v := MinProperty; v <= MaxProperty; v++ {
		d = append(d, v)
	}
	return d
}

// NewChequeDeck 创建未洗的支票牌
func NewChequeDeck() Deck {
	return slices.Clone(Deck(chequeValues))
}

// Shuffle 洗牌，r 为 nil 时使用全局随机源
func (d Deck) Shuffle(r *rand.Rand) {
	swap := func(i, j int) { d[i], d[j] = d[j], d[i] }
	if r == nil {
		rand.Shuffle(len(d), swap)
		return
	}
	r.Shuffle(len(d), swap)
}

// Deal 从牌堆顶部无放回地发 n 张牌，剩余不足时不发并返回 false
func (d *Deck) Deal(n int) ([]int, bool) {
	if n < 0 || n > len(*d) {
		return nil, false
	}
	dealt := slices.Clone((*d)[:n])
	*d = (*d)[n:]
	return dealt, true
}

// Len 剩余张数
func (d Deck) Len() int {
	return len(d)
}
