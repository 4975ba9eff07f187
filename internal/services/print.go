package services

import (
	"context"
	"encoding/json"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

func (c *Client) currentAPI() (*RestAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api == nil {
		return nil, model.ErrNotConnected
	}
	return c.api, nil
}

// Print submits a print job. Once the printer accepts it, cb becomes the
// active batch, replacing any batch still in flight. Callers should wait
// for the batch to finish before printing again.
func (c *Client) Print(ctx context.Context, req model.PrintRequest, cb BatchCallbacks) (json.RawMessage, error) {
	api, err := c.currentAPI()
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	res, err := api.Print(ctx, req)
	if err != nil {
		return nil, err
	}
	c.batch.Begin(cb)
	c.log.Debug().Str("format", req.FormatName).Int("quantity", req.Quantity).Msg("Print accepted, batch started")
	return res, nil
}

// PrintByName prints a format installed on the printer.
func (c *Client) PrintByName(ctx context.Context, formatName string, quantity int, data map[string]any, cb BatchCallbacks) (json.RawMessage, error) {
	return c.Print(ctx, model.PrintRequest{FormatName: formatName, Quantity: quantity, Data: data}, cb)
}

// BatchActive reports whether a print batch is being tracked.
func (c *Client) BatchActive() bool {
	return c.batch.Active()
}

func (c *Client) Preview(ctx context.Context, req model.PreviewRequest) (string, error) {
	api, err := c.currentAPI()
	if err != nil {
		return "", err
	}
	return api.Preview(ctx, req)
}

func (c *Client) PreviewByName(ctx context.Context, formatName string, data map[string]any) (string, error) {
	return c.Preview(ctx, model.PreviewRequest{FormatName: formatName, Data: data})
}

func (c *Client) FetchVariables(ctx context.Context) (map[string]any, error) {
	api, err := c.currentAPI()
	if err != nil {
		return nil, err
	}
	return api.FetchVariables(ctx)
}

func (c *Client) SaveVariables(ctx context.Context, vars map[string]any) (map[string]any, error) {
	api, err := c.currentAPI()
	if err != nil {
		return nil, err
	}
	return api.SaveVariables(ctx, vars)
}

func (c *Client) FetchTableRows(ctx context.Context, table string, q model.TableQuery) ([]model.TableRow, error) {
	api, err := c.currentAPI()
	if err != nil {
		return nil, err
	}
	return api.FetchTableRows(ctx, table, q)
}
