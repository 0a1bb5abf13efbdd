package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"github.com/go-redis/redis/v8"
	"strings"
	"time"
)

const (
	geocodePrefix = "geocode:"
	labelsKey     = "labels"
)

type StoreOption func(*Store)

func GeocodeTTLOption(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.geocodeTTL = ttl
	}
}

// LabelRadiusOption sets how far, in km, a cached place label is reused from.
func LabelRadiusOption(km float64) StoreOption {
	return func(s *Store) {
		s.labelRadiusKm = km
	}
}

// Store caches routing lookups that do not change between requests: address geocodes and
// place labels for coordinates. Forecasts are never stored here.
type Store struct {
	rc            *redis.Client
	geocodeTTL    time.Duration
	labelRadiusKm float64
}

func New(rc *redis.Client, opts ...StoreOption) *Store {
	s := &Store{
		rc:            rc,
		geocodeTTL:    7 * 24 * time.Hour,
		labelRadiusKm: 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Coordinates returns the cached geocode for address, or nil on a miss.
func (s *Store) Coordinates(ctx context.Context, address string) (*t.Coordinates, error) {
	val, err := s.rc.Get(ctx, geocodeKey(address)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("redis get geocode %q: %w", address, err)
	}

	var coords t.Coordinates
	if err := json.Unmarshal([]byte(val), &coords); err != nil {
		return nil, fmt.Errorf("unmarshalling cached geocode %q: %w", address, err)
	}
	return &coords, nil
}

func (s *Store) SetCoordinates(ctx context.Context, address string, coords t.Coordinates) error {
	data, err := json.Marshal(coords)
	if err != nil {
		return err
	}
	if err := s.rc.Set(ctx, geocodeKey(address), data, s.geocodeTTL).Err(); err != nil {
		return fmt.Errorf("redis set geocode %q: %w", address, err)
	}
	return nil
}

// NearbyLabel returns the closest cached place label within the label radius, or "" on a miss.
func (s *Store) NearbyLabel(ctx context.Context, coords t.Coordinates) (string, error) {
	locations, err := s.rc.GeoRadius(ctx, labelsKey, coords.Longitude, coords.Latitude,
		&redis.GeoRadiusQuery{
			Radius: s.labelRadiusKm,
			Unit:   "km",
			Count:  1,
			Sort:   "ASC",
		}).Result()
	if err != nil {
		return "", fmt.Errorf("redis georadius (%v, %v): %w", coords.Latitude, coords.Longitude, err)
	}
	if len(locations) == 0 {
		return "", nil
	}
	return locations[0].Name, nil
}

func (s *Store) AddLabel(ctx context.Context, coords t.Coordinates, label string) error {
	err := s.rc.GeoAdd(ctx, labelsKey, &redis.GeoLocation{
		Name:      label,
		Longitude: coords.Longitude,
		Latitude:  coords.Latitude,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis geoadd %q: %w", label, err)
	}
	return nil
}

func geocodeKey(address string) string {
	return geocodePrefix + strings.ToLower(strings.Join(strings.Fields(address), " "))
}
