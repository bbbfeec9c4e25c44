package domain

// Principal é a identidade autenticada associada à requisição, com os flags
// de permissão que o RoleGate consulta.
//
// A extração (headers, token, sessão) é responsabilidade do adapter HTTP;
// identidade ausente ou malformada degrada para Anonymous, nunca para erro.
type Principal struct {
	Authenticated bool
	Name          string

	Superuser bool
	Staff     bool

	// Role é o papel direto do usuário ("admin", "moderator", ...).
	// Vazio significa "sem papel" e simplesmente não casa com nada.
	Role string

	// Groups são nomes de grupos aos quais o usuário pertence.
	Groups []string
}

// Anonymous é o principal padrão quando não há identidade na requisição.
func Anonymous() Principal {
	return Principal{Name: "anonymous"}
}

// HasAnyRole informa se Role ou algum grupo casa com a lista dada.
func (p Principal) HasAnyRole(roles []string) bool {
	for _, want := range roles {
		if p.Role == want {
			return true
		}
		for _, g := range p.Groups {
			if g == want {
				return true
			}
		}
	}
	return false
}

// DisplayName devolve o nome para logs ("anonymous" quando vazio).
func (p Principal) DisplayName() string {
	if p.Name == "" {
		return "anonymous"
	}
	return p.Name
}
