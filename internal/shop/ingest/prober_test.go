package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopease/shopease/internal/common/util"
)

func TestProber_Probe(t *testing.T) {
	store := seeded(t, 120)

	report, err := NewProber(store).Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Empty)
	assert.Equal(t, int64(120), report.Total)

	require.Len(t, report.Pages, len(DefaultProbePageSizes))
	expectedRows := map[int]int{50: 50, 100: 100, 500: 120, 1000: 120}
	for _, timing := range report.Pages {
		assert.Equal(t, expectedRows[timing.PageSize], timing.Rows, "page size %d", timing.PageSize)
	}

	require.Len(t, report.Searches, len(DefaultProbeSearchTerms))
	results := map[string]int{}
	for _, s := range report.Searches {
		results[s.Term] = s.Results
	}
	// Names cycle through ten product types.
	assert.Equal(t, 12, results["Smartphone"])
	assert.Equal(t, 12, results["Laptop"])
	assert.Equal(t, 0, results["Electronics"])
}

func TestProber_EmptyStore(t *testing.T) {
	report, err := NewProber(newFakeStore()).Probe(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Empty)
	assert.Empty(t, report.Pages)
	assert.Empty(t, report.Searches)
}

func TestProber_Error(t *testing.T) {
	store := seeded(t, 10)
	store.readErr = errBoom

	_, err := NewProber(store).Probe(context.Background())
	assert.True(t, errors.Is(err, errBoom))
}

func TestProber_CustomSizes(t *testing.T) {
	store := seeded(t, 30)
	prober := NewProber(store)
	prober.pageSizes = []int{7}
	prober.searchTerms = []string{"tablet"}

	report, err := prober.Probe(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	assert.Equal(t, 7, report.Pages[0].Rows)
	require.Len(t, report.Searches, 1)
	assert.Equal(t, 3, report.Searches[0].Results)
}

func TestProber_TimesEachQuerySeparately(t *testing.T) {
	prober := NewProber(seeded(t, 20))
	prober.clock = &util.DummyClock{T: time.Now(), Step: 10 * time.Millisecond}

	report, err := prober.Probe(context.Background())
	require.NoError(t, err)
	for _, timing := range report.Pages {
		assert.Equal(t, 10*time.Millisecond, timing.Elapsed)
	}
	for _, timing := range report.Searches {
		assert.Equal(t, 10*time.Millisecond, timing.Elapsed)
	}
}
