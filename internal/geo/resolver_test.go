package geo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"surveydash/domain/dataset"
	"surveydash/domain/geo"
	"surveydash/internal/retry"
)

// MockGeocoder is a mock implementation of ports.ReverseGeocoder
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*geo.Address, error) {
	args := m.Called(ctx, lat, lon)
	addr, _ := args.Get(0).(*geo.Address)
	return addr, args.Error(1)
}

type countingSleeper struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return ctx.Err()
}

func newTestResolver(g *MockGeocoder, workers int) (*Resolver, *countingSleeper) {
	sleeper := &countingSleeper{}
	return NewResolver(g, ResolverConfig{
		Policy:  retry.Policy{MaxAttempts: 3, Delay: 2 * time.Second, Sleeper: sleeper},
		Workers: workers,
	}), sleeper
}

func TestResolveCellResolvedAddress(t *testing.T) {
	g := new(MockGeocoder)
	g.On("ReverseGeocode", mock.Anything, 34.5, 69.2).
		Return(&geo.Address{State: "Kabul", County: "Kabul City"}, nil).Once()
	resolver, _ := newTestResolver(g, 1)

	res, err := resolver.ResolveCell(context.Background(), dataset.NewString("34.5 69.2"))
	require.NoError(t, err)

	assert.Equal(t, geo.Resolution{Province: "Kabul", District: "Kabul City", Village: "Unknown"}, res)
	g.AssertExpectations(t)
}

func TestResolveCellSentinelsSkipLookup(t *testing.T) {
	tests := []struct {
		name string
		cell dataset.Value
		want string
	}{
		{"malformed", dataset.NewString("not-a-coordinate"), geo.InvalidData},
		{"non numeric tokens", dataset.NewString("north east"), geo.InvalidData},
		{"missing", dataset.Missing(), geo.NoData},
		{"not a string", dataset.NewNumber(34.5), geo.NoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := new(MockGeocoder)
			resolver, _ := newTestResolver(g, 1)

			res, err := resolver.ResolveCell(context.Background(), tt.cell)
			require.NoError(t, err)
			assert.Equal(t, geo.Sentinel(tt.want), res)
			g.AssertNotCalled(t, "ReverseGeocode", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestResolveCellRetriesThenErrors(t *testing.T) {
	g := new(MockGeocoder)
	g.On("ReverseGeocode", mock.Anything, 34.5, 69.2).Return(nil, errors.New("service timed out"))
	resolver, sleeper := newTestResolver(g, 1)

	res, err := resolver.ResolveCell(context.Background(), dataset.NewString("34.5 69.2"))
	require.NoError(t, err)

	assert.Equal(t, geo.Sentinel(geo.Error), res)
	g.AssertNumberOfCalls(t, "ReverseGeocode", 3)
	assert.Equal(t, 2, sleeper.calls)
}

func TestResolveCellRecoversOnRetry(t *testing.T) {
	g := new(MockGeocoder)
	g.On("ReverseGeocode", mock.Anything, 36.7, 67.1).Return(nil, errors.New("reset")).Once()
	g.On("ReverseGeocode", mock.Anything, 36.7, 67.1).
		Return(&geo.Address{State: "Balkh", County: "Mazar", Village: "Dehdadi"}, nil).Once()
	resolver, _ := newTestResolver(g, 1)

	res, err := resolver.ResolveCell(context.Background(), dataset.NewString("36.7 67.1 380 5"))
	require.NoError(t, err)
	assert.Equal(t, geo.Resolution{Province: "Balkh", District: "Mazar", Village: "Dehdadi"}, res)
}

func TestResolveCellNoAddress(t *testing.T) {
	g := new(MockGeocoder)
	g.On("ReverseGeocode", mock.Anything, 0.0, 0.0).Return(nil, nil)
	resolver, _ := newTestResolver(g, 1)

	res, err := resolver.ResolveCell(context.Background(), dataset.NewString("0 0"))
	require.NoError(t, err)
	assert.Equal(t, geo.Sentinel(geo.Unknown), res)
}

func TestResolveAddsAlignedColumns(t *testing.T) {
	for _, workers := range []int{1, 4} {
		g := new(MockGeocoder)
		g.On("ReverseGeocode", mock.Anything, 34.5, 69.2).
			Return(&geo.Address{State: "Kabul", County: "Kabul City", Town: "Paghman"}, nil)
		g.On("ReverseGeocode", mock.Anything, 31.6, 65.7).Return(nil, errors.New("rate limited"))
		resolver, _ := newTestResolver(g, workers)

		table := dataset.FromRecords([]string{"id", "gps"}, [][]string{
			{"1", "34.5 69.2"},
			{"2", "bad"},
			{"3", ""},
			{"4", "31.6 65.7"},
			{"5", "34.5 69.2"},
		})

		out, resolutions, err := resolver.Resolve(context.Background(), table, "gps")
		require.NoError(t, err)
		require.Len(t, resolutions, 5)

		provinces, err := out.Column(geo.ColumnProvince)
		require.NoError(t, err)
		got := make([]string, len(provinces))
		for i, v := range provinces {
			got[i] = v.Text()
		}
		assert.Equal(t, []string{"Kabul", geo.InvalidData, geo.NoData, geo.Error, "Kabul"}, got, "workers=%d", workers)

		village, _ := out.Column(geo.ColumnVillage)
		assert.Equal(t, "Paghman", village[0].Text())
		assert.False(t, table.HasColumn(geo.ColumnProvince))
	}
}

func TestResolveUnknownColumn(t *testing.T) {
	resolver, _ := newTestResolver(new(MockGeocoder), 1)
	_, _, err := resolver.Resolve(context.Background(), dataset.New("gps"), "location")
	assert.Error(t, err)
}

func TestResolveStopsOnCancel(t *testing.T) {
	g := new(MockGeocoder)
	ctx, cancel := context.WithCancel(context.Background())
	g.On("ReverseGeocode", mock.Anything, 34.5, 69.2).Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)
	resolver, _ := newTestResolver(g, 1)

	table := dataset.FromRecords([]string{"gps"}, [][]string{{"34.5 69.2"}, {"34.5 69.2"}})
	_, _, err := resolver.Resolve(ctx, table, "gps")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCoordinates(t *testing.T) {
	lat, lon, sentinel := ParseCoordinates(dataset.NewString(" 34.52  69.17 1800 4.5 "))
	assert.Empty(t, sentinel)
	assert.Equal(t, 34.52, lat)
	assert.Equal(t, 69.17, lon)
}
