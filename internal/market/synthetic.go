package market

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"
)

// SyntheticProvider inventa precios cuando no hay proveedor de mercado configurado.
// Sin precio de referencia deriva uno estable del simbolo (entre 20 y 520).
type SyntheticProvider struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewSyntheticProvider(seed uint64) *SyntheticProvider {
	return &SyntheticProvider{rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *SyntheticProvider) Quote(_ context.Context, symbol string) (Quote, error) {
	symbol = NormalizeSymbol(symbol)
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	base := 20 + float64(h.Sum32()%50000)/100
	return Quote{
		Symbol:    symbol,
		Price:     round2(base),
		Source:    "synthetic",
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Drift devuelve reference * (1 + u), u uniforme en [-maxPct, +maxPct].
func (p *SyntheticProvider) Drift(reference, maxPct float64) float64 {
	p.mu.Lock()
	u := (p.rand.Float64()*2 - 1) * maxPct
	p.mu.Unlock()
	return round2(reference * (1 + u))
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
