package epsg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/couchcryptid/storm-data-dsg/internal/observability"
)

// Client resolves EPSG axis order from a CRS registry that serves PROJJSON
// at {baseURL}/{code}.json, such as https://epsg.io.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a resolver client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// NorthingFirst implements dsg.AxisOrderLookup.
func (c *Client) NorthingFirst(srid int) (bool, error) {
	return c.Lookup(context.Background(), srid)
}

// Lookup fetches the definition of EPSG:srid and reports whether its first
// horizontal axis points north or south. Codes the registry does not know
// fail with domain.ErrUnknownCRS.
func (c *Client) Lookup(ctx context.Context, srid int) (bool, error) {
	start := time.Now()
	northing, err := c.doRequest(ctx, srid)
	c.metrics.CRSLookupDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.CRSLookups.WithLabelValues(observability.CRSFailed).Inc()
		c.logger.Warn("crs lookup failed", "srid", srid, "error", err)
		return false, err
	}
	c.metrics.CRSLookups.WithLabelValues(observability.CRSResolved).Inc()
	c.logger.Debug("crs resolved", "srid", srid, "northing_first", northing)
	return northing, nil
}

func (c *Client) doRequest(ctx context.Context, srid int) (bool, error) {
	if srid <= 0 {
		return false, fmt.Errorf("%w: invalid srid %d", domain.ErrUnknownCRS, srid)
	}

	u := fmt.Sprintf("%s/%d.json", c.baseURL, srid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("crs request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, fmt.Errorf("%w: EPSG:%d not found by resolver", domain.ErrUnknownCRS, srid)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("crs resolver error: status %d: %s", resp.StatusCode, body)
	}

	var crs projJSON
	if err := json.NewDecoder(resp.Body).Decode(&crs); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	axes := crs.horizontalAxes()
	if len(axes) < 2 {
		return false, fmt.Errorf("%w: EPSG:%d (%s) has no horizontal axes", domain.ErrUnknownCRS, srid, crs.Type)
	}
	switch strings.ToLower(axes[0].Direction) {
	case "north", "south":
		return true, nil
	case "east", "west":
		return false, nil
	default:
		return false, fmt.Errorf("%w: EPSG:%d first axis direction %q", domain.ErrUnknownCRS, srid, axes[0].Direction)
	}
}

// PROJJSON response types.

type projJSON struct {
	Type             string            `json:"type"`
	Name             string            `json:"name"`
	CoordinateSystem *coordinateSystem `json:"coordinate_system"`
	SourceCRS        *projJSON         `json:"source_crs"` // BoundCRS
	Components       []projJSON        `json:"components"` // CompoundCRS, horizontal first
}

type coordinateSystem struct {
	Subtype string `json:"subtype"`
	Axis    []axis `json:"axis"`
}

type axis struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Direction    string `json:"direction"`
}

func (p *projJSON) horizontalAxes() []axis {
	switch {
	case p.CoordinateSystem != nil:
		return p.CoordinateSystem.Axis
	case p.SourceCRS != nil:
		return p.SourceCRS.horizontalAxes()
	case len(p.Components) > 0:
		return p.Components[0].horizontalAxes()
	default:
		return nil
	}
}
