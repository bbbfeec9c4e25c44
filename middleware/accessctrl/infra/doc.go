// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: janela deslizante de timestamps por chave, com shards
//   - BucketStore: token bucket por chave usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore: persistência de estatísticas
//   - ChanPool: semáforo simples para limite de concorrência
package infra
