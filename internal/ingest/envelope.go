package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/dealerops/funnel-etl-go/internal/schema"
)

var errNotConfigured = errors.New("endpoint URL not configured")

// The upstream endpoints wrap their row arrays under different envelope
// conventions depending on the export generation.
type envelope struct {
	ResultSets struct {
		Table1 []schema.Record `json:"Table1"`
	} `json:"ResultSets"`
	Data   []schema.Record `json:"data"`
	Result []schema.Record `json:"Result"`
}

// decodeRecords detects the response shape: a bare array,
// {ResultSets:{Table1:[...]}}, {data:[...]} or {Result:[...]}, tried in that
// order. A body matching none of them, or not JSON at all, yields an empty
// set after logging; that is not a load failure.
func decodeRecords(endpoint string, body []byte, log *slog.Logger) []schema.Record {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '[' {
		var rows []schema.Record
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			log.Warn("unparseable array payload, treating as empty", slog.String("endpoint", endpoint), slog.String("err", err.Error()))
			return nil
		}
		return rows
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		log.Warn("unparseable payload, treating as empty", slog.String("endpoint", endpoint), slog.String("err", err.Error()))
		return nil
	}
	switch {
	case env.ResultSets.Table1 != nil:
		return env.ResultSets.Table1
	case env.Data != nil:
		return env.Data
	case env.Result != nil:
		return env.Result
	}
	log.Warn("no known envelope in payload, treating as empty", slog.String("endpoint", endpoint))
	return nil
}

// responseCache memoizes endpoint bodies for the duration of one load
// operation. It is created per load and passed explicitly; there is no
// module-level cache.
type responseCache struct {
	mu     sync.Mutex
	bodies map[string][]byte
}

func newResponseCache() *responseCache {
	return &responseCache{bodies: make(map[string][]byte)}
}

func (c *responseCache) fetch(ctx context.Context, client HTTPClient, endpoint, url string) ([]byte, error) {
	c.mu.Lock()
	body, ok := c.bodies[url]
	c.mu.Unlock()
	if ok {
		return body, nil
	}
	body, err := fetchBody(ctx, client, endpoint, url)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.bodies[url] = body
	c.mu.Unlock()
	return body, nil
}
