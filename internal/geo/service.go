package geo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Ansagu88/foodtruck/internal/cache"
	"github.com/Ansagu88/foodtruck/internal/obs"
)

// ErrInvalidRadius rejects non-positive or unparsable search radii.
var ErrInvalidRadius = errors.New("geo: invalid radius")

// Vendor is the discovery view of a vendor profile. Location is nil for
// vendors that never completed their address setup.
type Vendor struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location *Point    `json:"location,omitempty"`
}

// Result pairs a vendor with its distance from the search origin. DistanceKm
// is nil when the search had no origin.
type Result struct {
	Vendor     Vendor   `json:"vendor"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// Params captures a normalised marketplace search.
type Params struct {
	Keyword  string
	Origin   *Point
	RadiusKm float64
}

// Store lists approved, active vendors matching a keyword. An empty keyword
// matches everyone; otherwise a vendor matches when its name or any of its
// available item titles contains the keyword.
type Store interface {
	ListApproved(ctx context.Context, keyword string) ([]Vendor, error)
}

// Service runs marketplace searches: keyword candidates from the store,
// distance math and ordering in memory, results cached as JSON.
type Service struct {
	Store           Store
	Cache           *Cache
	DefaultRadiusKm float64
	MaxResults      int
}

// ParseParams normalises raw query values. Radius falls back to the
// configured default; lat and lng must both be present to form an origin.
func (s *Service) ParseParams(values url.Values) (Params, error) {
	params := Params{
		Keyword:  strings.TrimSpace(values.Get("keyword")),
		RadiusKm: s.DefaultRadiusKm,
	}

	latRaw := strings.TrimSpace(values.Get("lat"))
	lngRaw := strings.TrimSpace(values.Get("lng"))
	if (latRaw == "") != (lngRaw == "") {
		return params, fmt.Errorf("lat and lng must be provided together")
	}
	if latRaw != "" {
		lat, err := strconv.ParseFloat(latRaw, 64)
		if err != nil || lat < -90 || lat > 90 {
			return params, fmt.Errorf("lat must be a latitude in degrees")
		}
		lng, err := strconv.ParseFloat(lngRaw, 64)
		if err != nil || lng < -180 || lng > 180 {
			return params, fmt.Errorf("lng must be a longitude in degrees")
		}
		params.Origin = &Point{Lng: lng, Lat: lat}
	}

	if v := strings.TrimSpace(values.Get("radius")); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil || radius <= 0 {
			return params, fmt.Errorf("%w: %q", ErrInvalidRadius, v)
		}
		params.RadiusKm = radius
	}
	return params, nil
}

// cachedSearch is the JSON shape stored in Redis.
type cachedSearch struct {
	Results []Result `json:"results"`
}

// Search returns matching vendors. With an origin the results are only the
// vendors inside the radius, nearest first; without one the first MaxResults
// vendors ordered by id, no distances.
func (s *Service) Search(ctx context.Context, params Params, rawQuery string) ([]Result, error) {
	key := cache.DiscoveryKey(rawQuery)
	if s.Cache != nil {
		var cached cachedSearch
		ok, err := s.Cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			s.countSearch(params, "ok")
			return cached.Results, nil
		}
	}

	vendors, err := s.Store.ListApproved(ctx, params.Keyword)
	if err != nil {
		s.countSearch(params, "error")
		return nil, err
	}

	results := s.rank(vendors, params)
	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, key, cachedSearch{Results: results})
	}
	s.countSearch(params, "ok")
	return results, nil
}

func (s *Service) rank(vendors []Vendor, params Params) []Result {
	max := s.MaxResults
	if max <= 0 {
		max = 50
	}
	results := make([]Result, 0, len(vendors))

	if params.Origin == nil {
		sort.Slice(vendors, func(i, j int) bool {
			return vendors[i].ID.String() < vendors[j].ID.String()
		})
		for _, v := range vendors {
			if len(results) == max {
				break
			}
			results = append(results, Result{Vendor: v})
		}
		return results
	}

	type ranked struct {
		vendor Vendor
		km     float64
	}
	candidates := make([]ranked, 0, len(vendors))
	for _, v := range vendors {
		if v.Location == nil {
			continue
		}
		km := HaversineKm(*params.Origin, *v.Location)
		if km > params.RadiusKm {
			continue
		}
		candidates = append(candidates, ranked{vendor: v, km: km})
	}
	// Order by the exact distance; the 1-decimal value is display-only and
	// would collapse vendors less than ~50 m apart into ties.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].km != candidates[j].km {
			return candidates[i].km < candidates[j].km
		}
		return candidates[i].vendor.ID.String() < candidates[j].vendor.ID.String()
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	for _, c := range candidates {
		rounded := RoundKm(c.km)
		results = append(results, Result{Vendor: c.vendor, DistanceKm: &rounded})
	}
	return results
}

func (s *Service) countSearch(params Params, result string) {
	if obs.GeoSearchTotal == nil {
		return
	}
	mode := "listing"
	if params.Origin != nil {
		mode = "nearby"
	}
	obs.GeoSearchTotal.WithLabelValues(mode, result).Inc()
}
