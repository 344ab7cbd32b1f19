// Package geo resolves GPS coordinate cells to administrative place names.
package geo

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"surveydash/domain/dataset"
	"surveydash/domain/geo"
	"surveydash/internal"
	"surveydash/internal/metrics"
	"surveydash/internal/retry"
	"surveydash/ports"
)

// ResolverConfig tunes lookups. Workers above 1 resolve rows concurrently;
// the geocoder is expected to enforce the upstream rate limit.
type ResolverConfig struct {
	Policy  retry.Policy
	Workers int
}

// DefaultResolverConfig resolves rows one at a time with the default retry policy
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{Policy: retry.DefaultPolicy(), Workers: 1}
}

// Resolver adds province, district and village columns derived from a
// "lat lon" coordinate column
type Resolver struct {
	geocoder ports.ReverseGeocoder
	config   ResolverConfig
	logger   *internal.Logger
}

// NewResolver creates a resolver backed by geocoder
func NewResolver(geocoder ports.ReverseGeocoder, config ResolverConfig) *Resolver {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Resolver{
		geocoder: geocoder,
		config:   config,
		logger:   internal.DefaultLogger.WithComponent("GeoResolver"),
	}
}

// Resolve returns a copy of table with Province, District and Village
// columns aligned to the rows, plus the per-row resolutions. A row that
// cannot be resolved gets a sentinel and never fails the batch; only context
// cancellation aborts.
func (r *Resolver) Resolve(ctx context.Context, table *dataset.Table, column string) (*dataset.Table, []geo.Resolution, error) {
	cells, err := table.Column(column)
	if err != nil {
		return nil, nil, err
	}

	resolutions := make([]geo.Resolution, len(cells))
	if r.config.Workers == 1 {
		for i, cell := range cells {
			if resolutions[i], err = r.ResolveCell(ctx, cell); err != nil {
				return nil, nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.config.Workers)
		for i, cell := range cells {
			i, cell := i, cell
			g.Go(func() error {
				res, err := r.ResolveCell(gctx, cell)
				resolutions[i] = res
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	out := table
	for _, col := range []struct {
		name string
		pick func(geo.Resolution) string
	}{
		{geo.ColumnProvince, func(res geo.Resolution) string { return res.Province }},
		{geo.ColumnDistrict, func(res geo.Resolution) string { return res.District }},
		{geo.ColumnVillage, func(res geo.Resolution) string { return res.Village }},
	} {
		values := make([]dataset.Value, len(resolutions))
		for i, res := range resolutions {
			values[i] = dataset.NewString(col.pick(res))
		}
		if out, err = out.WithColumn(col.name, values); err != nil {
			return nil, nil, err
		}
	}

	r.logger.Info("resolved %d rows from column %q", len(resolutions), column)
	return out, resolutions, nil
}

// ResolveCell resolves one coordinate cell. The error is non-nil only when
// ctx is done.
func (r *Resolver) ResolveCell(ctx context.Context, cell dataset.Value) (geo.Resolution, error) {
	lat, lon, sentinel := ParseCoordinates(cell)
	if sentinel != "" {
		metrics.GeoResolutions.WithLabelValues(outcomeLabel(sentinel)).Inc()
		return geo.Sentinel(sentinel), nil
	}

	var address *geo.Address
	err := r.config.Policy.Do(ctx, func(ctx context.Context, attempt int) error {
		a, err := r.geocoder.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			r.logger.Debug("lookup (%f, %f) attempt %d failed: %v", lat, lon, attempt, err)
			return err
		}
		address = a
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return geo.Resolution{}, ctxErr
		}
		r.logger.Warn("giving up on (%f, %f): %v", lat, lon, err)
		metrics.GeoResolutions.WithLabelValues(outcomeLabel(geo.Error)).Inc()
		return geo.Sentinel(geo.Error), nil
	}

	res := geo.FromAddress(address)
	if address == nil {
		metrics.GeoResolutions.WithLabelValues("unknown").Inc()
	} else {
		metrics.GeoResolutions.WithLabelValues("resolved").Inc()
	}
	return res, nil
}

// ParseCoordinates reads "lat lon" from a cell. Extra tokens such as
// altitude and accuracy are ignored. The sentinel is empty on success.
func ParseCoordinates(cell dataset.Value) (lat, lon float64, sentinel string) {
	s, ok := cell.Str()
	if !ok {
		return 0, 0, geo.NoData
	}
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return 0, 0, geo.InvalidData
	}
	lat, errLat := strconv.ParseFloat(fields[0], 64)
	lon, errLon := strconv.ParseFloat(fields[1], 64)
	if errLat != nil || errLon != nil {
		return 0, 0, geo.InvalidData
	}
	return lat, lon, ""
}

func outcomeLabel(sentinel string) string {
	switch sentinel {
	case geo.InvalidData:
		return "invalid"
	case geo.NoData:
		return "no_data"
	case geo.Error:
		return "error"
	}
	return "unknown"
}
