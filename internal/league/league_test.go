package league

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintStableAcrossFetches(t *testing.T) {
	goal := ScoringEvent{
		Side: SideHome, ScorerID: "p10", ScorerName: "A. Björnsson",
		Clock: "67'", Period: "2H", HomeScore: 2, AwayScore: 1,
	}
	same := ScoringEvent{
		Side: SideHome, ScorerID: "p10", ScorerName: "A. Björnsson",
		Clock: "67'", Period: "2H", HomeScore: 2, AwayScore: 1,
	}
	assert.Equal(t, goal.Fingerprint("e1"), same.Fingerprint("e1"))
}

func TestFingerprintSensitivity(t *testing.T) {
	base := ScoringEvent{
		Side: SideHome, ScorerID: "p10",
		Clock: "67'", Period: "2H", HomeScore: 2, AwayScore: 1,
	}

	tests := []struct {
		name   string
		mutate func(s *ScoringEvent)
	}{
		{"score pair", func(s *ScoringEvent) { s.HomeScore = 3 }},
		{"side", func(s *ScoringEvent) { s.Side = SideAway }},
		{"scorer", func(s *ScoringEvent) { s.ScorerID = "p11" }},
		{"clock", func(s *ScoringEvent) { s.Clock = "68'" }},
		{"period", func(s *ScoringEvent) { s.Period = "OT" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := base
			tt.mutate(&changed)
			assert.NotEqual(t, base.Fingerprint("e1"), changed.Fingerprint("e1"))
		})
	}

	assert.NotEqual(t, base.Fingerprint("e1"), base.Fingerprint("e2"),
		"same goal record in a different event is a different fingerprint")
}

func TestTeamTopicTag(t *testing.T) {
	assert.Equal(t, "team_kr", Team{ID: "1", Name: "KR Reykjavík", Code: "KR"}.TopicTag())
}

type stubAdapter struct{ id string }

func (s stubAdapter) ID() string                                { return s.id }
func (s stubAdapter) ListAll(context.Context) ([]Event, error)  { return nil, nil }
func (s stubAdapter) ListActive(context.Context) ([]Event, error) { return nil, nil }
func (s stubAdapter) FetchDetails(context.Context, string) (*EventDetails, error) {
	return nil, nil
}
func (s stubAdapter) DisplayInfo(Event) DisplayInfo { return DisplayInfo{} }
func (s stubAdapter) HasScoringDetail() bool        { return false }

func TestRegistryPreservesOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(stubAdapter{"football"})
	r.Register(stubAdapter{"handball"})
	r.Register(stubAdapter{"cycling"})

	assert.Equal(t, []string{"football", "handball", "cycling"}, r.IDs())

	// Re-registering keeps the position.
	r.Register(stubAdapter{"football"})
	assert.Equal(t, []string{"football", "handball", "cycling"}, r.IDs())

	_, ok := r.Get("handball")
	assert.True(t, ok)
	_, ok = r.Get("curling")
	assert.False(t, ok)
}
