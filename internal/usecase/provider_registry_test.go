package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/sportscorex/internal/domain/scores"
)

type stubProvider struct {
	name      scores.ProviderName
	standings bool
}

func (p stubProvider) Name() scores.ProviderName { return p.name }

func (p stubProvider) Supports(op scores.Operation) bool {
	return op == scores.OperationLive || (op == scores.OperationStandings && p.standings)
}

func (p stubProvider) FetchLive(context.Context, string, string) ([]scores.Match, error) {
	return []scores.Match{}, nil
}

func (p stubProvider) FetchStandings(context.Context, string, string) ([]scores.StandingRow, error) {
	return []scores.StandingRow{}, nil
}

func TestProviderRegistry_OrderingAndFiltering(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry(
		stubProvider{name: scores.ProviderAPISports, standings: true},
		nil,
		stubProvider{name: scores.ProviderFootballAPI, standings: true},
		stubProvider{name: scores.ProviderTheSportsDB},
		stubProvider{name: scores.ProviderAPISports},
	)

	names := registry.Names()
	want := []scores.ProviderName{scores.ProviderAPISports, scores.ProviderFootballAPI, scores.ProviderTheSportsDB}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}

	standings := registry.OrderedProviders(scores.OperationStandings)
	if len(standings) != 2 || standings[0].Name() != scores.ProviderAPISports || standings[1].Name() != scores.ProviderFootballAPI {
		t.Fatalf("unexpected standings providers %v", standings)
	}

	live := registry.OrderedProviders(scores.OperationLive)
	live[0] = nil
	if registry.OrderedProviders(scores.OperationLive)[0] == nil {
		t.Fatalf("expected OrderedProviders to return a copy")
	}
}

func TestProviderRegistry_Catalog(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry(
		stubProvider{name: scores.ProviderFootballAPI, standings: true},
		stubProvider{name: scores.ProviderTheSportsDB},
	)

	catalog := registry.Catalog()
	if len(catalog) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(catalog))
	}
	if catalog[0].Priority != 1 || len(catalog[0].Operations) != 2 {
		t.Fatalf("unexpected first entry %+v", catalog[0])
	}
	if catalog[1].Name != scores.ProviderTheSportsDB || len(catalog[1].Operations) != 1 || catalog[1].Operations[0] != scores.OperationLive {
		t.Fatalf("unexpected second entry %+v", catalog[1])
	}
}

func TestProviderRegistry_EmptyAndNil(t *testing.T) {
	t.Parallel()

	var nilRegistry *ProviderRegistry
	if got := nilRegistry.OrderedProviders(scores.OperationLive); len(got) != 0 {
		t.Fatalf("expected no providers from nil registry")
	}
	if got := NewProviderRegistry().Catalog(); len(got) != 0 {
		t.Fatalf("expected empty catalog")
	}
}
