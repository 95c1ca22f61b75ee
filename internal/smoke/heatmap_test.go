package smoke

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
)

func serve(t *testing.T, status int, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHeatmap(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantOK      bool
		wantPoints  int
		wantInvalid int
		wantErr     string
	}{
		{
			name:       "top level array",
			status:     http.StatusOK,
			body:       `[{"lat":40.4,"lng":-3.7,"intensity":0.8},{"latitude":41.3,"longitude":2.1}]`,
			wantOK:     true,
			wantPoints: 2,
		},
		{
			name:       "data envelope with string numbers",
			status:     http.StatusOK,
			body:       `{"success":true,"data":[{"lat":"40.41","lon":"-3.70","weight":"3"}]}`,
			wantOK:     true,
			wantPoints: 1,
		},
		{
			name:       "empty points array",
			status:     http.StatusOK,
			body:       `{"points":[]}`,
			wantOK:     true,
			wantPoints: 0,
		},
		{
			name:        "out of range and incomplete points",
			status:      http.StatusOK,
			body:        `[{"lat":95,"lng":0},{"lat":10},{"lat":1,"lng":2}]`,
			wantPoints:  1,
			wantInvalid: 2,
			wantErr:     "2 of 3 points",
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":"boom"}`,
			wantErr: "returned 500",
		},
		{
			name:    "not json",
			status:  http.StatusOK,
			body:    `<html>PHP Fatal error</html>`,
			wantErr: "not JSON",
		},
		{
			name:    "object without points",
			status:  http.StatusOK,
			body:    `{"success":false}`,
			wantErr: `no "data" or "points" array`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, "application/json", tt.body)

			rep := Heatmap(context.Background(), HeatmapOptions{URL: srv.URL, Timeout: time.Second})

			assert.Equal(t, tt.wantOK, rep.OK)
			assert.Equal(t, tt.status, rep.StatusCode)
			assert.Equal(t, tt.wantPoints, rep.Points)
			assert.Equal(t, tt.wantInvalid, rep.InvalidPoints)
			if tt.wantErr == "" {
				assert.Empty(t, rep.Error)
			} else {
				assert.Contains(t, rep.Error, tt.wantErr)
			}
		})
	}
}

func TestHeatmap_NoURL(t *testing.T) {
	rep := Heatmap(context.Background(), HeatmapOptions{})
	assert.False(t, rep.OK)
	assert.Equal(t, "heatmap url not configured", rep.Error)
}

// pointsBody returns a valid points array padded with trailing
// whitespace to exactly size bytes.
func pointsBody(size int) string {
	var b strings.Builder
	b.WriteString("[")
	const point = `{"lat":40.4,"lng":-3.7},`
	for b.Len()+len(point)+len(`{"lat":0,"lng":0}]`) < size/2 {
		b.WriteString(point)
	}
	b.WriteString(`{"lat":0,"lng":0}]`)
	b.WriteString(strings.Repeat(" ", size-b.Len()))
	return b.String()
}

func TestHeatmap_BodySizeCap(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantOK  bool
		wantErr string
	}{
		{"exactly at the cap", maxHeatmapBody, true, ""},
		{"one byte over", maxHeatmapBody + 1, false, "heatmap body exceeds 8 MiB"},
		{"nine mebibytes", 9 << 20, false, "heatmap body exceeds 8 MiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := pointsBody(tt.size)
			require.Len(t, body, tt.size)
			srv := serve(t, http.StatusOK, "application/json", body)

			rep := Heatmap(context.Background(), HeatmapOptions{URL: srv.URL, Timeout: 5 * time.Second})

			assert.Equal(t, tt.wantOK, rep.OK)
			if tt.wantErr == "" {
				assert.Empty(t, rep.Error)
				assert.Positive(t, rep.Points)
				return
			}
			assert.Equal(t, tt.wantErr, rep.Error)
			assert.Zero(t, rep.Points)
			assert.NotContains(t, rep.Error, "not JSON")
		})
	}
}

func TestHeatmap_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rep := Heatmap(context.Background(), HeatmapOptions{URL: srv.URL, Timeout: 50 * time.Millisecond})
	assert.False(t, rep.OK)
	assert.Contains(t, rep.Error, "timed out")
}

func TestHeatmap_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rep := Heatmap(context.Background(), HeatmapOptions{URL: url, Timeout: time.Second})
	assert.False(t, rep.OK)
	assert.Contains(t, rep.Error, "heatmap request failed")
}

func TestParsePoints(t *testing.T) {
	points, invalid, err := ParsePoints([]byte(`[{"lat":1,"lng":2},{"lat":"x","lng":2},"nope"]`))
	require.NoError(t, err)
	assert.Equal(t, 2, invalid)
	require.Len(t, points, 1)
	assert.Equal(t, Point{Lat: 1, Lng: 2, Intensity: 1}, points[0])

	_, _, err = ParsePoints([]byte(`42`))
	assert.True(t, errs.IsInvalidInput(err))
}
