package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arbstream/internal/models"
)

func TestMockSourceListEvents(t *testing.T) {
	src := NewMockSource("toto", 1, false)
	src.now = func() time.Time { return time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC) }

	refs, err := src.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 3)

	assert.Equal(t, "ajax-psv", refs[0].ID)
	assert.Equal(t, "Ajax vs PSV", refs[0].Name)
	assert.Equal(t, "toto", refs[0].Source)

	kickoff := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	assert.WithinDuration(t, kickoff, refs[0].StartTime, 5*time.Minute)
}

func TestMockSourceIsDeterministic(t *testing.T) {
	a := NewMockSource("bet365", 42, true)
	b := NewMockSource("bet365", 42, true)
	ref := models.EventRef{ID: "ajax-psv"}

	for i := 0; i < 20; i++ {
		oa, err := a.FetchOdds(context.Background(), ref)
		require.NoError(t, err)
		ob, err := b.FetchOdds(context.Background(), ref)
		require.NoError(t, err)

		require.Len(t, oa, 3)
		for j := range oa {
			assert.Equal(t, oa[j].Odds, ob[j].Odds)
			assert.Equal(t, oa[j].Label, ob[j].Label)
		}
	}
}

func TestMockSourceOddsAreValid(t *testing.T) {
	src := NewMockSource("unibet", 7, true)
	for i := 0; i < 200; i++ {
		outcomes, err := src.FetchOdds(context.Background(), models.EventRef{ID: "feyenoord-az"})
		require.NoError(t, err)
		for _, o := range outcomes {
			assert.NoError(t, o.Validate())
			assert.Equal(t, "unibet", o.Bookmaker)
		}
	}
}

func TestMockSourceHonoursCancelledContext(t *testing.T) {
	src := NewMockSource("toto", 1, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.ListEvents(ctx)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
