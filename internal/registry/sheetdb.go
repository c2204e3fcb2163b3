package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/madmatrix/tickethub/internal/domain"
)

// SheetDBSource reads one sheet of a spreadsheet exposed as a JSON array
// (sheetdb.io style: GET <base>?sheet=<name>).
type SheetDBSource struct {
	name      string
	url       string
	token     string
	userAgent string
	client    *http.Client
}

func NewSheetDBSource(name, baseURL, sheet, token, userAgent string, client *http.Client) *SheetDBSource {
	return &SheetDBSource{
		name:      name,
		url:       sheetURL(baseURL, sheet),
		token:     strings.TrimSpace(token),
		userAgent: userAgent,
		client:    client,
	}
}

func (s *SheetDBSource) Name() string { return s.name }

func (s *SheetDBSource) Fetch(ctx context.Context) ([]domain.RegistryRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%s: http %d", s.name, resp.StatusCode)
	}

	// sheetdb answers errors as a JSON object, so anything but an array is unusable.
	var rows []domain.RegistryRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%s: decode rows: %w", s.name, err)
	}
	if rows == nil {
		return nil, fmt.Errorf("%s: decode rows: body is not an array", s.name)
	}
	return rows, nil
}

func sheetURL(base, sheet string) string {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("sheet", sheet)
	// sheetdb expects %20 for spaces, not '+'.
	u.RawQuery = strings.ReplaceAll(q.Encode(), "+", "%20")
	return u.String()
}
