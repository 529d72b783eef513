package usecase

import (
	"context"

	"github.com/riskibarqy/sportscorex/internal/domain/scores"
)

// Provider is implemented by every upstream sports-data adapter.
type Provider interface {
	Name() scores.ProviderName
	Supports(op scores.Operation) bool
	FetchLive(ctx context.Context, sport, league string) ([]scores.Match, error)
	FetchStandings(ctx context.Context, league, season string) ([]scores.StandingRow, error)
}

type ProviderInfo struct {
	Name       scores.ProviderName `json:"name"`
	Priority   int                 `json:"priority"`
	Operations []scores.Operation  `json:"operations"`
}

// ProviderRegistry keeps enabled providers in priority order.
type ProviderRegistry struct {
	providers []Provider
}

// NewProviderRegistry keeps argument order as priority. Nil entries and
// repeated names are ignored; the first occurrence wins.
func NewProviderRegistry(providers ...Provider) *ProviderRegistry {
	seen := make(map[scores.ProviderName]struct{}, len(providers))
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		if _, ok := seen[p.Name()]; ok {
			continue
		}
		seen[p.Name()] = struct{}{}
		out = append(out, p)
	}
	return &ProviderRegistry{providers: out}
}

func (r *ProviderRegistry) OrderedProviders(op scores.Operation) []Provider {
	if r == nil {
		return nil
	}
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Supports(op) {
			out = append(out, p)
		}
	}
	return out
}

func (r *ProviderRegistry) Names() []scores.ProviderName {
	if r == nil {
		return nil
	}
	out := make([]scores.ProviderName, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.Name())
	}
	return out
}

func (r *ProviderRegistry) Catalog() []ProviderInfo {
	if r == nil {
		return []ProviderInfo{}
	}
	out := make([]ProviderInfo, 0, len(r.providers))
	for i, p := range r.providers {
		info := ProviderInfo{
			Name:       p.Name(),
			Priority:   i + 1,
			Operations: make([]scores.Operation, 0, 2),
		}
		for _, op := range []scores.Operation{scores.OperationLive, scores.OperationStandings} {
			if p.Supports(op) {
				info.Operations = append(info.Operations, op)
			}
		}
		out = append(out, info)
	}
	return out
}
