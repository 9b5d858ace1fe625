package session

import (
	"slices"

	"github.com/palemoky/for-sale/internal/types"
)

// Player 房间中的玩家
type Player struct {
	ID       string
	Nickname string
	Ready    bool
	Balance  int

	properties []int // 持有的地产牌，保持升序
	cheques    []int // 获得的支票，按获得顺序

	CurrentBid int  // 本轮竞拍出价
	HasPassed  bool // 本轮是否已放弃

	client types.ClientInterface
}

func newPlayer(client types.ClientInterface, nickname string, balance int) *Player {
	return &Player{
		ID:       client.GetID(),
		Nickname: nickname,
		Balance:  balance,
		client:   client,
	}
}

// Properties 返回持有地产牌的副本
func (p *Player) Properties() []int {
	return slices.Clone(p.properties)
}

// Cheques 返回已获得支票的副本
func (p *Player) Cheques() []int {
	return slices.Clone(p.cheques)
}

// ChequeTotal 支票总额
func (p *Player) ChequeTotal() int {
	total := 0
	for _, c := range p.cheques {
		total += c
	}
	return total
}

// Total 最终资产：余额 + 支票总额
func (p *Player) Total() int {
	return p.Balance + p.ChequeTotal()
}

// Holds 是否持有某张地产牌
func (p *Player) Holds(card int) bool {
	_, found := slices.BinarySearch(p.properties, card)
	return found
}

func (p *Player) addProperty(card int) {
	i, _ := slices.BinarySearch(p.properties, card)
	p.properties = slices.Insert(p.properties, i, card)
}

func (p *Player) removeProperty(card int) bool {
	i, found := slices.BinarySearch(p.properties, card)
	if !found {
		return false
	}
	p.properties = slices.Delete(p.properties, i, i+1)
	return true
}

func (p *Player) addCheque(value int) {
	p.cheques = append(p.cheques, value)
}

func (p *Player) resetBidding() {
	p.CurrentBid = 0
	p.HasPassed = false
}

// PassPenalty 放弃时需支付的金额：出价为 0 时不罚，
// 否则退还出价一半（向下取整到千）后支付剩余部分
func PassPenalty(bid int) int {
	if bid <= 0 {
		return 0
	}
	return bid - (bid/2/1000)*1000
}
