// Package accessctrl fornece adapters HTTP (net/http) para a cadeia de controle
// de acesso: janela de horário, rate limit por janela deslizante, permissão por
// papel e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: os gates e a cadeia ordenada (decisão allow/deny) sem net/http
//   - infra: implementações concretas (janela deslizante, token bucket, stats,
//     semáforo), detalhes de infraestrutura
//   - accessctrl (este pacote): middlewares HTTP + wiring/extração de chave e
//     principal + tradução para status/headers/logs
//
// Fluxo no gateway:
//
//   1) Extrai a chave do cliente (IP/header/XFF) e o principal (headers X-Auth-*)
//   2) Percorre a cadeia na ordem fixa: horário -> rate limit -> papel
//   3) Na primeira negação, responde 403 com o motivo em texto e loga uma linha
//      estruturada no sink da política (rate_limiting, access_restriction,
//      role_permission); o handler seguinte nunca é chamado
//   4) Se permitido, chama o próximo handler (ex: reverse proxy)
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como RATE_WINDOW, RATE_MAX_EVENTS, ACCESS_START_HOUR e PROTECTED_PATHS.
package accessctrl
