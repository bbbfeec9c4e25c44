// Package application contém os casos de uso (regras de aplicação) do controle
// de acesso: os gates de horário, rate limit e papel, a cadeia ordenada que os
// percorre e o serviço de limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Chain.Decide(rc) retorna a primeira Decision negativa, ou allow.
package application
