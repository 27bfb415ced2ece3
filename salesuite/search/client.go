package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/retailops/salesuite-app/log"
	"github.com/sirupsen/logrus"
)

// Config describes the search-service connection and upload behavior.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	UseSSL    bool
	Index     string
	ChunkSize int
}

// productMapping is the fixed index mapping: exact-match style number, two
// full-text fields tokenized with the service's IK analyzer, and the upload
// timestamp.
const productMapping = `{
	"mappings": {
		"properties": {
			"款号": {"type": "keyword"},
			"产品名称": {
				"type": "text",
				"analyzer": "ik_max_word",
				"search_analyzer": "ik_smart",
				"fields": {
					"keyword": {"type": "keyword", "ignore_above": 256}
				}
			},
			"品目": {
				"type": "text",
				"analyzer": "ik_max_word",
				"search_analyzer": "ik_smart",
				"fields": {
					"keyword": {"type": "keyword", "ignore_above": 256}
				}
			},
			"上传时间": {"type": "date", "format": "yyyy-MM-dd HH:mm:ss||yyyy-MM-dd||epoch_millis"}
		}
	},
	"settings": {
		"number_of_shards": 3,
		"number_of_replicas": 1
	}
}`

// Client talks to an Elasticsearch-compatible service over its REST API. The
// underlying transport retries transient failures with exponential backoff.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cfg        Config
	logger     logrus.FieldLogger
}

// NewClient builds a Client for the configured endpoint.
func NewClient(cfg Config) *Client {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 2 * time.Second
	rc.RetryWaitMax = 60 * time.Second
	rc.Logger = nil

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
		// The managed service presents a certificate the host does not
		// trust; verification stays off as in the upstream deployment.
		rc.HTTPClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402
		}
	}

	return &Client{
		baseURL:    fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port),
		httpClient: rc.StandardClient(),
		cfg:        cfg,
		logger:     log.Search,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	return resp.StatusCode, data, nil
}

// Ping verifies the service is reachable, retrying with exponential backoff,
// and logs the reported server version.
func (c *Client) Ping(ctx context.Context) error {
	op := func() error {
		status, body, err := c.do(ctx, http.MethodGet, "/", nil)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("ping returned status %d", status)
		}

		var info struct {
			Version struct {
				Number string `json:"number"`
			} `json:"version"`
		}
		if err := json.Unmarshal(body, &info); err == nil && info.Version.Number != "" {
			c.logger.Infof("Connected to search service, version %s", info.Version.Number)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("search service unreachable at %s: %w", c.baseURL, err)
	}

	return nil
}

// EnsureIndex creates the product index with its fixed mapping if it does
// not already exist.
func (c *Client) EnsureIndex(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodHead, "/"+c.cfg.Index, nil)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", c.cfg.Index, err)
	}
	if status == http.StatusOK {
		c.logger.Infof("Index %s already exists", c.cfg.Index)
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("unexpected status %d checking index %s", status, c.cfg.Index)
	}

	c.logger.Infof("Creating index %s", c.cfg.Index)
	status, body, err := c.do(ctx, http.MethodPut, "/"+c.cfg.Index, []byte(productMapping))
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", c.cfg.Index, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("failed to create index %s: status %d: %s", c.cfg.Index, status, body)
	}

	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// BulkIndex uploads the documents in chunks and returns per-document success
// and failure tallies. A failed item is logged and counted, never fatal.
func (c *Client) BulkIndex(ctx context.Context, docs []ProductDoc) (int, int, error) {
	var indexed, failed int

	for start := 0; start < len(docs); start += c.cfg.ChunkSize {
		end := start + c.cfg.ChunkSize
		if end > len(docs) {
			end = len(docs)
		}

		body, err := c.bulkBody(docs[start:end])
		if err != nil {
			return indexed, failed, err
		}

		status, respBody, err := c.do(ctx, http.MethodPost, "/_bulk", body)
		if err != nil {
			return indexed, failed, fmt.Errorf("bulk request failed: %w", err)
		}
		if status != http.StatusOK {
			return indexed, failed, fmt.Errorf("bulk request returned status %d: %s", status, respBody)
		}

		var resp bulkResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return indexed, failed, fmt.Errorf("failed to decode bulk response: %w", err)
		}
		for _, item := range resp.Items {
			for _, result := range item {
				if result.Error != nil {
					failed++
					c.logger.Warnf("Failed to index document %s: %s: %s",
						result.ID, result.Error.Type, result.Error.Reason)
				} else {
					indexed++
				}
			}
		}

		if (indexed+failed)%1000 == 0 || end == len(docs) {
			c.logger.Infof("Processed %d documents (indexed: %d, failed: %d)",
				indexed+failed, indexed, failed)
		}
	}

	return indexed, failed, nil
}

func (c *Client) bulkBody(docs []ProductDoc) ([]byte, error) {
	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]map[string]string{
			"index": {"_index": c.cfg.Index, "_id": doc.ID()},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return nil, err
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Refresh makes freshly indexed documents visible to search.
func (c *Client) Refresh(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodPost, "/"+c.cfg.Index+"/_refresh", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("refresh returned status %d", status)
	}
	return nil
}

// Count returns the number of documents in the index.
func (c *Client) Count(ctx context.Context) (int, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/"+c.cfg.Index+"/_count", nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("count returned status %d", status)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}

	return resp.Count, nil
}
