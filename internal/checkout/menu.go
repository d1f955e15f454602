package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zensushi/zen/internal/domain"
	"github.com/zensushi/zen/pkg/httpclient"
)

// MenuPath is the server endpoint listing the menu.
const MenuPath = "/cardapio"

const maxMenuBytes = 1 << 20

// MenuClient fetches the menu from the server.
type MenuClient struct {
	client   *httpclient.Client
	endpoint string
}

// NewMenuClient creates a MenuClient for serverURL. Retries follow the
// client's configuration.
func NewMenuClient(client *httpclient.Client, serverURL string) *MenuClient {
	return &MenuClient{
		client:   client,
		endpoint: strings.TrimRight(serverURL, "/") + MenuPath,
	}
}

// Fetch returns the menu in display order.
func (c *MenuClient) Fetch(ctx context.Context) ([]domain.MenuItem, error) {
	resp, err := c.client.Get(ctx, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch menu: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch menu: %w", httpclient.ParseResponseError(resp, "zen-server"))
	}
	defer func() { _ = resp.Body.Close() }()

	var items []domain.MenuItem
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMenuBytes)).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	return items, nil
}
