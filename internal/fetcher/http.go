package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/employer-resolve/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	Retry     resilience.RetryConfig
	// RatePerHost limits requests per second to any one host.
	RatePerHost rate.Limit
	Burst       int
}

// HTTPFetcher implements Fetcher with per-host rate limiting and retry of
// transient failures.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates an HTTPFetcher, filling unset options with defaults.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "employer-resolve/1.0"
	}
	if opts.RatePerHost == 0 {
		opts.RatePerHost = 5
	}
	if opts.Burst == 0 {
		opts.Burst = 5
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.opts.RatePerHost, f.opts.Burst)
		f.limiters[host] = lim
	}
	return lim
}

// Download fetches the URL and returns the response body. 408, 429 and 5xx
// responses and network timeouts are retried with backoff.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	retry := f.opts.Retry
	retry.OnRetry = resilience.RetryLogger("download", rawURL)

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (io.ReadCloser, error) {
		if err := f.limiterFor(rawURL).Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: create request")
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: get %s", rawURL)
		}
		if err := resilience.StatusError(resp.StatusCode, rawURL); err != nil {
			_ = resp.Body.Close()
			return nil, err
		}
		return resp.Body, nil
	})
}

// DownloadToFile fetches the URL into dest. The file only appears once the
// body has been fully written.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, dest string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, eris.Wrap(err, "fetcher: create directory")
	}
	tmp := dest + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}

	n, err := io.Copy(file, body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return n, eris.Wrapf(err, "fetcher: write %s", dest)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return n, eris.Wrap(err, "fetcher: rename download")
	}
	return n, nil
}

// FileNameFor returns the local file name used for a downloaded URL.
func FileNameFor(rawURL string, index int) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}
	return fmt.Sprintf("extract-%03d.tsv", index+1)
}

// DownloadAll fetches every URL into dir with at most workers concurrent
// downloads. Returned paths are in input order. The first failure cancels
// the remaining downloads.
func DownloadAll(ctx context.Context, f Fetcher, urls []string, dir string, workers int) ([]string, error) {
	if workers < 1 {
		workers = 1
	}
	paths := make([]string, len(urls))
	var total atomic.Int64

	used := make(map[string]bool, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range urls {
		name := FileNameFor(u, i)
		if used[name] {
			name = fmt.Sprintf("%03d-%s", i+1, name)
		}
		used[name] = true
		dest := filepath.Join(dir, name)
		paths[i] = dest
		g.Go(func() error {
			n, err := f.DownloadToFile(gctx, u, dest)
			if err != nil {
				return eris.Wrapf(err, "fetcher: download %s", u)
			}
			total.Add(n)
			zap.L().Info("fetcher: downloaded extract",
				zap.String("url", u),
				zap.String("path", dest),
				zap.Int64("bytes", n),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("fetcher: downloads complete",
		zap.Int("files", len(urls)),
		zap.Int64("bytes", total.Load()),
	)
	return paths, nil
}
