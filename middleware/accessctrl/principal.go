package accessctrl

import (
	"net/http"
	"strconv"
	"strings"

	"access-gateway/middleware/accessctrl/domain"
)

// Headers que uma camada de autenticação upstream preenche para o gateway.
const (
	HeaderAuthUser      = "X-Auth-User"
	HeaderAuthSuperuser = "X-Auth-Superuser"
	HeaderAuthStaff     = "X-Auth-Staff"
	HeaderAuthRole      = "X-Auth-Role"
	HeaderAuthGroups    = "X-Auth-Groups"
)

type PrincipalFunc func(r *http.Request) domain.Principal

// DefaultPrincipalFunc monta o principal a partir dos headers X-Auth-*.
//
// Sem X-Auth-User a requisição é anônima. Flags malformados valem false e
// grupos vazios são descartados: identidade ruim degrada, não falha.
func DefaultPrincipalFunc() PrincipalFunc {
	return func(r *http.Request) domain.Principal {
		name := strings.TrimSpace(r.Header.Get(HeaderAuthUser))
		if name == "" {
			return domain.Anonymous()
		}

		p := domain.Principal{
			Authenticated: true,
			Name:          name,
			Role:          strings.TrimSpace(r.Header.Get(HeaderAuthRole)),
		}
		if v, err := strconv.ParseBool(strings.TrimSpace(r.Header.Get(HeaderAuthSuperuser))); err == nil {
			p.Superuser = v
		}
		if v, err := strconv.ParseBool(strings.TrimSpace(r.Header.Get(HeaderAuthStaff))); err == nil {
			p.Staff = v
		}
		if raw := r.Header.Get(HeaderAuthGroups); raw != "" {
			for _, g := range strings.Split(raw, ",") {
				if g = strings.TrimSpace(g); g != "" {
					p.Groups = append(p.Groups, g)
				}
			}
		}
		return p
	}
}
