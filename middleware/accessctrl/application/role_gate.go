package application

import (
	"strings"

	"access-gateway/middleware/accessctrl/domain"
)

// DefaultRoleMessage é o texto devolvido quando falta permissão.
const DefaultRoleMessage = "you do not have permission to access this resource"

// DefaultAllowedRoles são os papéis aceitos em paths protegidos.
var DefaultAllowedRoles = []string{"admin", "moderator"}

// RoleGate nega acesso a paths protegidos para quem não tem papel suficiente.
//
// Path fora de Protected passa incondicionalmente (o gate não se aplica).
// Em path protegido: exige autenticação e superuser/staff OU papel/grupo na
// lista. Superuser e staff curto-circuitam antes da consulta de papel.
type RoleGate struct {
	// Protected é o conjunto ordenado de prefixos de path protegidos.
	Protected []string

	// Roles vazio usa DefaultAllowedRoles.
	Roles []string

	Message string
}

func (g RoleGate) Check(rc domain.RequestContext) domain.Decision {
	if !g.pathProtected(rc.Path) {
		return domain.Allow()
	}

	p := rc.Principal
	if p.Authenticated {
		if p.Superuser || p.Staff {
			return domain.Allow()
		}
		roles := g.Roles
		if len(roles) == 0 {
			roles = DefaultAllowedRoles
		}
		if p.HasAnyRole(roles) {
			return domain.Allow()
		}
	}

	msg := g.Message
	if msg == "" {
		msg = DefaultRoleMessage
	}
	return domain.Decision{
		Allowed: false,
		Reason:  domain.ReasonInsufficientRole,
		Message: msg,
	}
}

func (g RoleGate) pathProtected(path string) bool {
	for _, prefix := range g.Protected {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
