package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"nebulous-ladder/internal/config"
	"nebulous-ladder/internal/constants"
)

// ArchiveClient mirrors battle reports from a remote archive before a run.
// The archive serves an index.json listing report filenames and the raw
// reports themselves under the same base URL. With no ARCHIVE_URL
// configured the client is a no-op and the pipeline folds local reports
// only.
type ArchiveClient struct {
	baseURL string
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewArchiveClient(cfg *config.Config, logger zerolog.Logger) *ArchiveClient {
	return &ArchiveClient{
		baseURL: cfg.ArchiveURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			ReadTimeout:         constants.ArchiveTimeout,
			WriteTimeout:        constants.ArchiveTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

// Mirror downloads every report listed by the archive index that is not
// already present under dir.
func (c *ArchiveClient) Mirror(ctx context.Context, dir string) error {
	if c.baseURL == "" {
		c.logger.Debug().Msg("no archive configured, skipping mirror")
		return nil
	}

	names, err := c.fetchIndex(ctx)
	if err != nil {
		return fmt.Errorf("fetch archive index: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	var fetched int
	for _, name := range names {
		dest := filepath.Join(dir, filepath.Base(name))
		if _, err := os.Stat(dest); err == nil {
			continue
		}

		body, err := c.get(ctx, c.baseURL+"/"+url.PathEscape(name))
		if err != nil {
			return fmt.Errorf("download report %s: %w", name, err)
		}
		if err := os.WriteFile(dest, body, 0o644); err != nil {
			return fmt.Errorf("store report %s: %w", name, err)
		}

		fetched++
		c.logger.Info().Str("report", name).Msg("mirrored battle report")
	}

	c.logger.Debug().Int("listed", len(names)).Int("fetched", fetched).Msg("archive mirror complete")
	return nil
}

func (c *ArchiveClient) fetchIndex(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, c.baseURL+"/index.json")
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return names, nil
}

func (c *ArchiveClient) get(ctx context.Context, uri string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, constants.ArchiveTimeout)
	}
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("archive returned %d", resp.StatusCode())
	}

	// resp is pooled; the body must be copied out
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
