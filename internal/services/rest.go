package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

// API is the printer's request/response channel.
type API interface {
	Localizer
	FetchEnums(ctx context.Context) (model.Enums, error)
	FetchStatus(ctx context.Context) (model.RawStatus, error)
	Print(ctx context.Context, req model.PrintRequest) (json.RawMessage, error)
	Preview(ctx context.Context, req model.PreviewRequest) (string, error)
	FetchVariables(ctx context.Context) (map[string]any, error)
	SaveVariables(ctx context.Context, vars map[string]any) (map[string]any, error)
	FetchTableRows(ctx context.Context, table string, q model.TableQuery) ([]model.TableRow, error)
}

// RestAPI talks to the printer's HTTP interface.
type RestAPI struct {
	baseURL string
	client  *http.Client
}

func NewRestAPI(baseURL string, client *http.Client) *RestAPI {
	if client == nil {
		client = http.DefaultClient
	}
	return &RestAPI{baseURL: baseURL, client: client}
}

func (a *RestAPI) BaseURL() string {
	return a.baseURL
}

// --- Generic Requests ---

func (a *RestAPI) get(ctx context.Context, path string, query url.Values, out any) error {
	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return a.do(req, out)
}

func (a *RestAPI) post(ctx context.Context, path string, body any, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, out)
}

func (a *RestAPI) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &model.APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// --- Endpoints ---

func (a *RestAPI) FetchEnums(ctx context.Context) (model.Enums, error) {
	var enums model.Enums
	err := a.get(ctx, "/rest/enums", nil, &enums)
	return enums, err
}

func (a *RestAPI) FetchStatus(ctx context.Context) (model.RawStatus, error) {
	var status model.RawStatus
	err := a.get(ctx, "/rest/status", nil, &status)
	return status, err
}

func (a *RestAPI) Localize(ctx context.Context, codes []int) (map[int]string, error) {
	q := url.Values{}
	for _, c := range codes {
		q.Add("strings[]", strconv.Itoa(c))
	}
	var raw map[string]string
	if err := a.get(ctx, "/localization", q, &raw); err != nil {
		return nil, err
	}
	res := make(map[int]string, len(raw))
	for k, v := range raw {
		code, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		res[code] = v
	}
	return res, nil
}

func (a *RestAPI) Print(ctx context.Context, req model.PrintRequest) (json.RawMessage, error) {
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	var res json.RawMessage
	if err := a.post(ctx, "/webaep/print", req, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Preview returns the rendered label as a base64 image.
func (a *RestAPI) Preview(ctx context.Context, req model.PreviewRequest) (string, error) {
	var res model.PreviewResponse
	if err := a.post(ctx, "/webaep/preview", req, &res); err != nil {
		return "", err
	}
	return res.Image, nil
}

func (a *RestAPI) FetchVariables(ctx context.Context) (map[string]any, error) {
	var vars map[string]any
	err := a.get(ctx, "/webaep/data", nil, &vars)
	return vars, err
}

// SaveVariables sets and evaluates vars and returns all application
// variables.
func (a *RestAPI) SaveVariables(ctx context.Context, vars map[string]any) (map[string]any, error) {
	var res map[string]any
	err := a.post(ctx, "/webaep/data", vars, &res)
	return res, err
}

func (a *RestAPI) FetchTableRows(ctx context.Context, table string, q model.TableQuery) ([]model.TableRow, error) {
	v := url.Values{}
	v.Set("tableName", table)
	if q.Rows > 0 {
		v.Set("rows", strconv.Itoa(q.Rows))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Index != "" {
		v.Set("index", q.Index)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Filter != "" {
		v.Set("filter", q.Filter)
	}
	if q.Distinct {
		v.Set("distinct", "true")
	}
	for _, c := range q.Columns {
		v.Add("columns[]", c)
	}
	var rows []model.TableRow
	err := a.get(ctx, "/webaep/table", v, &rows)
	return rows, err
}
