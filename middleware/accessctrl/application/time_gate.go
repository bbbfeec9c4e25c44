package application

import (
	"access-gateway/middleware/accessctrl/domain"
)

// DefaultDeniedHoursMessage é o texto devolvido quando a janela de horário nega.
const DefaultDeniedHoursMessage = "access to the messaging service is restricted at this time"

// TimeGate nega requisições fora da janela de horário permitida.
// Independe de cliente: só olha a hora local de rc.Now.
type TimeGate struct {
	Hours   domain.AccessHours
	Message string
}

// NewTimeGate usa os padrões 21/18.
//
// IMPORTANTE: a comparação é literal (`hour < start && hour > end`), então
// com 21/18 somente as horas 19 e 20 são negadas. Ver domain.AccessHours.
func NewTimeGate() TimeGate {
	return TimeGate{Hours: domain.AccessHours{StartHour: 21, EndHour: 18}}
}

func (g TimeGate) Check(rc domain.RequestContext) domain.Decision {
	if !g.Hours.Denies(rc.Now.Hour()) {
		return domain.Allow()
	}
	msg := g.Message
	if msg == "" {
		msg = DefaultDeniedHoursMessage
	}
	return domain.Decision{
		Allowed: false,
		Reason:  domain.ReasonOutsideAllowedHours,
		Message: msg,
	}
}
