// Package rest implements the types.Context interface over the remote
// HTTP/JSON API: sequential offset pagination, per-base bearer
// authentication, request pacing, and the server error taxonomy. Nothing
// here retries; all failures propagate to the caller.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mesh-intelligence/airbase/pkg/types"
)

// TokenSource resolves the API token to use for a base.
type TokenSource interface {
	Token(baseID string) (string, error)
}

// StaticToken is a TokenSource returning one token for every base.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(string) (string, error) { return string(t), nil }

// TokenMap is a TokenSource keyed by base ID.
type TokenMap map[string]string

// Token implements TokenSource.
func (m TokenMap) Token(baseID string) (string, error) {
	token, ok := m[baseID]
	if !ok {
		return "", fmt.Errorf("no API token configured for base %q", baseID)
	}
	return token, nil
}

// Client implements types.Context over HTTP.
type Client struct {
	httpClient *http.Client
	root       string
	tokens     TokenSource
	pacer      *pacer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRoot replaces the API root URL.
func WithRoot(root string) Option {
	return func(c *Client) { c.root = root }
}

// WithMinInterval replaces the minimum spacing between requests.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.pacer = newPacer(d) }
}

// New returns a Client authenticating through tokens.
func New(tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		root:       types.DefaultAPIRoot,
		tokens:     tokens,
		pacer:      newPacer(DefaultMinInterval),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one paced request. recordID, when non-empty, marks the
// request as a point operation so the server's not-found category maps to
// types.ErrRecordNotFound. out, when non-nil, receives the decoded
// response body.
func (c *Client) do(ctx context.Context, method, requestURL, baseID string, body, out any, recordID string) error {
	if err := c.pacer.wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return err
	}
	token, err := c.tokens.Token(baseID)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return c.responseError(resp.StatusCode, data, recordID)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

func (c *Client) responseError(status int, body []byte, recordID string) error {
	var we wireError
	_ = json.Unmarshal(body, &we)
	if recordID != "" && (we.Error.Type == notFoundErrorType || status == http.StatusNotFound) {
		return fmt.Errorf("%w: %q", types.ErrRecordNotFound, recordID)
	}
	return &RequestError{
		Type:       we.Error.Type,
		Message:    we.Error.Message,
		StatusCode: status,
	}
}

// FetchSingle implements types.Context.
func (c *Client) FetchSingle(ctx context.Context, rt *types.RecordType, recordID string, addr types.BaseAndTable) (*types.Record, error) {
	requestURL, err := addr.URL(c.root, recordID)
	if err != nil {
		return nil, err
	}
	var data types.WireRecord
	if err := c.do(ctx, http.MethodGet, requestURL, addr.BaseID(), nil, &data, recordID); err != nil {
		return nil, err
	}
	rec := rt.NewRecordAt(addr)
	if err := rec.ConsumeWireData(data); err != nil {
		return nil, err
	}
	return rec, nil
}

// recordPage is one page of a list response.
type recordPage struct {
	Records []types.WireRecord `json:"records"`
	Offset  string             `json:"offset,omitempty"`
}

// listPages streams wire records page by page. columns, when non-empty,
// projects the response to the listed columns. The next page is requested
// only after every record of the current page has been yielded.
func (c *Client) listPages(ctx context.Context, addr types.BaseAndTable, formula string, columns []string, yield func(types.WireRecord) error) error {
	tableURL, err := addr.URL(c.root, "")
	if err != nil {
		return err
	}
	params := url.Values{}
	if formula != "" {
		params.Set("filterByFormula", formula)
	}
	for _, column := range columns {
		params.Add("fields[]", column)
	}

	for {
		requestURL := tableURL
		if len(params) > 0 {
			requestURL += "?" + params.Encode()
		}
		var page recordPage
		if err := c.do(ctx, http.MethodGet, requestURL, addr.BaseID(), nil, &page, ""); err != nil {
			return err
		}
		for _, data := range page.Records {
			if err := yield(data); err != nil {
				return err
			}
		}
		if page.Offset == "" {
			return nil
		}
		params.Set("offset", page.Offset)
	}
}

// FetchMany implements types.Context.
func (c *Client) FetchMany(ctx context.Context, rt *types.RecordType, addr types.BaseAndTable, formula string, yield func(*types.Record) error) error {
	return c.listPages(ctx, addr, formula, rt.ColumnNames(), func(data types.WireRecord) error {
		rec := rt.NewRecordAt(addr)
		if err := rec.ConsumeWireData(data); err != nil {
			return err
		}
		return yield(rec)
	})
}

// Create implements types.Context. The server response hydrates the
// record in place, picking up the assigned ID, the creation timestamp,
// and any server-computed field values.
func (c *Client) Create(ctx context.Context, rt *types.RecordType, rec *types.Record) error {
	addr := rec.Address()
	requestURL, err := addr.URL(c.root, "")
	if err != nil {
		return err
	}
	fields, err := rec.EncodeFields(false)
	if err != nil {
		return err
	}
	var data types.WireRecord
	body := map[string]any{"fields": fields}
	if err := c.do(ctx, http.MethodPost, requestURL, addr.BaseID(), body, &data, ""); err != nil {
		return err
	}
	return rec.ConsumeWireData(data)
}

// Update implements types.Context, sending only the record's dirty fields.
func (c *Client) Update(ctx context.Context, rt *types.RecordType, rec *types.Record) error {
	fields, err := rec.EncodeFields(false)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	addr := rec.Address()
	requestURL, err := addr.URL(c.root, rec.ID())
	if err != nil {
		return err
	}
	body := map[string]any{"fields": fields}
	return c.do(ctx, http.MethodPatch, requestURL, addr.BaseID(), body, nil, rec.ID())
}

// Delete implements types.Context.
func (c *Client) Delete(ctx context.Context, rt *types.RecordType, recordID string, addr types.BaseAndTable) error {
	requestURL, err := addr.URL(c.root, recordID)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, requestURL, addr.BaseID(), nil, nil, recordID)
}

// GetRaw fetches one record in wire shape, without a declared record
// type. The CLI uses this to inspect arbitrary tables.
func (c *Client) GetRaw(ctx context.Context, addr types.BaseAndTable, recordID string) (types.WireRecord, error) {
	requestURL, err := addr.URL(c.root, recordID)
	if err != nil {
		return types.WireRecord{}, err
	}
	var data types.WireRecord
	if err := c.do(ctx, http.MethodGet, requestURL, addr.BaseID(), nil, &data, recordID); err != nil {
		return types.WireRecord{}, err
	}
	return data, nil
}

// ListRaw streams every record of a table in wire shape, optionally
// constrained by a pre-rendered formula.
func (c *Client) ListRaw(ctx context.Context, addr types.BaseAndTable, formula string, yield func(types.WireRecord) error) error {
	return c.listPages(ctx, addr, formula, nil, yield)
}

// DeleteRaw removes one record without a declared record type.
func (c *Client) DeleteRaw(ctx context.Context, addr types.BaseAndTable, recordID string) error {
	requestURL, err := addr.URL(c.root, recordID)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, requestURL, addr.BaseID(), nil, nil, recordID)
}
