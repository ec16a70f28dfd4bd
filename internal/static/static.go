// Package static serves the portal's landing page assets, either from a
// local directory or from an S3 bucket.
package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mergington/activities-portal/internal/pkg/logger"
)

// Config selects the asset source. Bucket wins over Dir when set.
type Config struct {
	Dir    string
	Bucket string
	Region string
	Prefix string
}

// New returns a handler for paths relative to the mount point
// (callers strip "/static").
func New(ctx context.Context, cfg Config) (http.Handler, error) {
	if cfg.Bucket == "" {
		dir := cfg.Dir
		if dir == "" {
			dir = "static"
		}
		return http.FileServer(http.Dir(dir)), nil
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewS3Handler(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// S3API is the subset of the S3 client the handler uses.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Handler streams objects from a bucket.
type S3Handler struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Handler(client S3API, bucket, prefix string) *S3Handler {
	return &S3Handler{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (h *S3Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	key := h.key(r.URL.Path)
	out, err := h.client.GetObject(r.Context(), &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			http.NotFound(w, r)
			return
		}
		logger.Error("static asset fetch failed", "key", key, "error", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	defer out.Body.Close()

	ct := aws.ToString(out.ContentType)
	if ct == "" || ct == "binary/octet-stream" {
		if byExt := mime.TypeByExtension(path.Ext(key)); byExt != "" {
			ct = byExt
		}
	}
	if ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if out.ContentLength != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(*out.ContentLength, 10))
	}
	if out.ETag != nil {
		w.Header().Set("ETag", *out.ETag)
	}
	if out.LastModified != nil {
		w.Header().Set("Last-Modified", out.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, out.Body); err != nil {
		logger.Warn("static asset copy interrupted", "key", key, "error", err)
	}
}

// key maps a request path to an object key; directories resolve to index.html.
func (h *S3Handler) key(p string) string {
	clean := path.Clean("/" + p)
	if strings.HasSuffix(p, "/") || clean == "/" {
		clean = path.Join(clean, "index.html")
	}
	clean = strings.TrimPrefix(clean, "/")
	if h.prefix != "" {
		return h.prefix + "/" + clean
	}
	return clean
}

