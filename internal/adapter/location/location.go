package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
)

// ErrNoFix is returned when the location service has no position.
var ErrNoFix = errors.New("no location fix")

// Static always reports the same configured position.
type Static struct {
	location domain.Location
	now      func() time.Time
}

// NewStatic creates a provider for fixed coordinates.
func NewStatic(latitude, longitude float64) *Static {
	return &Static{
		location: domain.Location{Latitude: latitude, Longitude: longitude},
		now:      time.Now,
	}
}

// CurrentLocation returns the configured position stamped with the current time.
func (s *Static) CurrentLocation(ctx context.Context) (domain.Location, error) {
	if err := ctx.Err(); err != nil {
		return domain.Location{}, err
	}

	loc := s.location
	loc.CapturedAt = s.now()

	return loc, nil
}

// fixResponse is the body returned by the location service.
type fixResponse struct {
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	Accuracy   float64   `json:"accuracy"`
	CapturedAt time.Time `json:"captured_at"`
}

// HTTP asks a location service for the latest device fix.
type HTTP struct {
	client *resty.Client
	url    string
}

// NewHTTP creates a provider that GETs url. The caller bounds each call via ctx.
func NewHTTP(url string) *HTTP {
	return &HTTP{
		client: resty.New().SetHeader("Accept", "application/json"),
		url:    url,
	}
}

// CurrentLocation fetches the latest fix.
func (h *HTTP) CurrentLocation(ctx context.Context) (domain.Location, error) {
	var fix fixResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetResult(&fix).
		Get(h.url)
	if err != nil {
		return domain.Location{}, fmt.Errorf("request location: %w", err)
	}

	if resp.IsError() {
		return domain.Location{}, fmt.Errorf("location service answered %d", resp.StatusCode())
	}

	if fix.Latitude == nil || fix.Longitude == nil {
		return domain.Location{}, ErrNoFix
	}

	return domain.Location{
		Latitude:   *fix.Latitude,
		Longitude:  *fix.Longitude,
		Accuracy:   fix.Accuracy,
		CapturedAt: fix.CapturedAt,
	}, nil
}
