package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/logger"
)

// maxHeatmapBody caps the response size. Larger bodies fail the check.
const maxHeatmapBody = 8 << 20

// HeatmapOptions configures the heatmap endpoint check.
type HeatmapOptions struct {
	URL     string
	Timeout time.Duration // 10s when zero
	Client  *http.Client  // http.DefaultClient when nil
}

// HeatmapReport is the outcome of Heatmap.
type HeatmapReport struct {
	URL           string `json:"url"`
	StatusCode    int    `json:"status_code"`
	OK            bool   `json:"ok"`
	Points        int    `json:"points"`
	InvalidPoints int    `json:"invalid_points"`
	ContentType   string `json:"content_type,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
	Error         string `json:"error,omitempty"`
}

// Point is one decoded heatmap point.
type Point struct {
	Lat       float64
	Lng       float64
	Intensity float64
}

// Heatmap fetches the heatmap-data endpoint once and checks it returns a
// 2xx JSON body holding an array of points, either at the top level or
// under "data" or "points". Every point needs a latitude and a longitude
// in range.
func Heatmap(ctx context.Context, opts HeatmapOptions) HeatmapReport {
	rep := HeatmapReport{URL: opts.URL}
	log := logger.FromContext(ctx).With().Str("check", "heatmap").Str("url", opts.URL).Logger()
	start := time.Now()

	fail := func(err error) HeatmapReport {
		rep.Error = errs.Message(err)
		rep.DurationMS = time.Since(start).Milliseconds()
		log.WarnWith("heatmap check failed", map[string]interface{}{"status_code": rep.StatusCode, "error": rep.Error})
		return rep
	}

	if opts.URL == "" {
		return fail(errs.New(errs.ErrKindInvalidInput, "heatmap url not configured"))
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return fail(errs.Wrap(errs.ErrKindInvalidInput, "invalid heatmap url", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fail(errs.Wrap(errs.ErrKindTimeout, "heatmap request timed out", err))
		}
		return fail(errs.Wrap(errs.ErrKindConnectionFailed, "heatmap request failed", err))
	}
	defer resp.Body.Close()

	rep.StatusCode = resp.StatusCode
	rep.ContentType = resp.Header.Get("Content-Type")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHeatmapBody+1))
	if err != nil {
		return fail(errs.Wrap(errs.ErrKindQueryFailed, "read heatmap body", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(errs.Newf(errs.ErrKindQueryFailed, "heatmap endpoint returned %d", resp.StatusCode))
	}
	if len(body) > maxHeatmapBody {
		return fail(errs.New(errs.ErrKindInvalidInput, "heatmap body exceeds 8 MiB"))
	}
	if mt, _, _ := mime.ParseMediaType(rep.ContentType); mt != "" && !strings.Contains(mt, "json") {
		log.Warnf("heatmap endpoint sent content type %q", rep.ContentType)
	}

	points, invalid, err := ParsePoints(body)
	if err != nil {
		return fail(err)
	}
	rep.Points = len(points)
	rep.InvalidPoints = invalid
	rep.DurationMS = time.Since(start).Milliseconds()

	if invalid > 0 {
		return fail(errs.Newf(errs.ErrKindInvalidInput, "%d of %d points lack a valid latitude/longitude", invalid, invalid+len(points)))
	}
	rep.OK = true
	log.InfoWith("heatmap check passed", map[string]interface{}{"points": rep.Points})
	return rep
}

// ParsePoints decodes a heatmap payload. It returns the valid points and
// the number of rejected ones; an error means the body is not JSON or has
// no points array.
func ParsePoints(body []byte) ([]Point, int, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, 0, errs.Wrap(errs.ErrKindInvalidInput, "heatmap body is not JSON", err)
	}

	var items []any
	switch v := root.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"data", "points"} {
			if arr, ok := v[key].([]any); ok {
				items = arr
				break
			}
		}
		if items == nil {
			return nil, 0, errs.New(errs.ErrKindInvalidInput, `heatmap body has no "data" or "points" array`)
		}
	default:
		return nil, 0, errs.New(errs.ErrKindInvalidInput, "heatmap body is neither an array nor an object")
	}

	points := make([]Point, 0, len(items))
	invalid := 0
	for _, it := range items {
		p, ok := parsePoint(it)
		if !ok {
			invalid++
			continue
		}
		points = append(points, p)
	}
	return points, invalid, nil
}

func parsePoint(v any) (Point, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Point{}, false
	}
	lat, ok := firstNumber(m, "lat", "latitude")
	if !ok || lat < -90 || lat > 90 {
		return Point{}, false
	}
	lng, ok := firstNumber(m, "lng", "lon", "longitude")
	if !ok || lng < -180 || lng > 180 {
		return Point{}, false
	}
	p := Point{Lat: lat, Lng: lng, Intensity: 1}
	if w, ok := firstNumber(m, "intensity", "weight", "count"); ok {
		p.Intensity = w
	}
	return p, true
}

// firstNumber returns the first key holding a number. MySQL DECIMAL columns
// often reach JSON as strings, so numeric strings count.
func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f) x%.2f", p.Lat, p.Lng, p.Intensity)
}
