package nerdgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/queries"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

const (
	apiKeyHeader = "API-Key"
	dataPath     = "data"
	errorsPath   = "errors"
)

var log = logger.GetOrCreate("nerdgraph")

type client struct {
	url    string
	apiKey string
	client *http.Client
}

// NewClient creates a new NerdGraph client with the provided per-request timeout
func NewClient(url string, apiKey string, timeout time.Duration) (*client, error) {
	if len(url) == 0 {
		return nil, errors.New("empty NerdGraph URL")
	}
	if len(apiKey) == 0 {
		return nil, errors.New("empty API key")
	}

	return &client{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Execute posts the GraphQL query and returns the "data" object of the response. A non-empty "errors" array
// fails the whole call, partial data is discarded.
func (c *client) Execute(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create query request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("network error sending query: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, errStatusNotOK(resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}

	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, errors.New("invalid JSON in query response")
	}

	gqlErrors := gjson.GetBytes(respBody, errorsPath)
	if gqlErrors.IsArray() && len(gqlErrors.Array()) > 0 {
		messages := make([]string, 0, len(gqlErrors.Array()))
		for _, e := range gqlErrors.Array() {
			messages = append(messages, e.Get("message").String())
		}

		return gjson.Result{}, errGraphQL(messages)
	}

	data := gjson.GetBytes(respBody, dataPath)
	if !data.Exists() || data.Type == gjson.Null {
		return gjson.Result{}, errPathNotFound(dataPath)
	}

	log.Trace("query executed", "url", c.url, "response size", len(respBody))

	return data, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *client) IsInterfaceNil() bool {
	return c == nil
}
