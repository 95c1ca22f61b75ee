package filestore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
)

// ReportPrefix is the key prefix of every archived report.
const ReportPrefix = "reports/"

// Format is a rendered report format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatText Format = "txt"
)

// ContentType returns the MIME type stored with the object.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ReportKey returns reports/<yyyy>/<mm>/<dd>/<runID>.<ext>, dated in UTC.
func ReportKey(runID string, at time.Time, f Format) string {
	return fmt.Sprintf("%s%s/%s.%s", ReportPrefix, at.UTC().Format("2006/01/02"), runID, f)
}

// Archived describes one uploaded report.
type Archived struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	URL    string `json:"url,omitempty"`
}

// Archiver uploads rendered reports into one bucket.
type Archiver struct {
	store   Store
	bucket  string
	ttl     time.Duration
	ensured bool
}

// NewArchiver returns an Archiver writing to bucket. A positive ttl makes
// Save return a presigned download URL valid that long.
func NewArchiver(store Store, bucket string, ttl time.Duration) *Archiver {
	return &Archiver{store: store, bucket: bucket, ttl: ttl}
}

// Save uploads body under ReportKey(runID, at, f). The bucket is created on
// first use.
func (a *Archiver) Save(ctx context.Context, runID string, at time.Time, f Format, body []byte) (*Archived, error) {
	if runID == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "archive: empty run id")
	}
	if !a.ensured {
		if err := a.store.EnsureBucket(ctx, a.bucket); err != nil {
			return nil, err
		}
		a.ensured = true
	}

	key := ReportKey(runID, at, f)
	info, err := a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), f.ContentType())
	if err != nil {
		return nil, err
	}

	out := &Archived{Bucket: a.bucket, Key: key, Size: info.Size}
	if a.ttl > 0 {
		url, err := a.store.PresignGetURL(ctx, a.bucket, key, a.ttl)
		if err != nil {
			return nil, err
		}
		out.URL = url
	}
	return out, nil
}

// List returns archived reports under prefix, which is relative to
// ReportPrefix ("2025/03" lists March 2025).
func (a *Archiver) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	return a.store.ListObjects(ctx, a.bucket, ListOptions{
		Prefix:    ReportPrefix + strings.TrimPrefix(prefix, ReportPrefix),
		Recursive: true,
		Limit:     limit,
	})
}

// Open streams one archived report. The caller must Close it.
func (a *Archiver) Open(ctx context.Context, key string) (Object, error) {
	if !strings.HasPrefix(key, ReportPrefix) {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "archive: %q is not a report key", key)
	}
	return a.store.GetObject(ctx, a.bucket, key)
}
