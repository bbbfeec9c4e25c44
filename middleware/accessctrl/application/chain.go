package application

import (
	"access-gateway/middleware/accessctrl/domain"
)

// Chain percorre os gates na ordem dada e curto-circuita na primeira negação.
//
// A ordem é fixa por construção (quem monta a cadeia decide); nenhum gate é
// consultado depois de uma negação.
type Chain struct {
	Gates []domain.Gate
}

func (c Chain) Decide(rc domain.RequestContext) domain.Decision {
	for _, g := range c.Gates {
		if g == nil {
			continue
		}
		if dec := g.Check(rc); !dec.Allowed {
			return dec
		}
	}
	return domain.Allow()
}
