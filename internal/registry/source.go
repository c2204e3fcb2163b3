package registry

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/madmatrix/tickethub/internal/config"
	"github.com/madmatrix/tickethub/internal/domain"
	"github.com/madmatrix/tickethub/internal/storage/postgres"
)

// Source is one partition ("sheet") of the registry.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RegistryRow, error)
}

// Deps carries shared resources for building sources.
type Deps struct {
	HTTPClient *http.Client
	Pool       *pgxpool.Pool
}

// NewFromConfig builds the source described by c.
func NewFromConfig(c config.Source, deps Deps) (Source, error) {
	switch c.Kind {
	case "sheetdb", "":
		client := deps.HTTPClient
		if client == nil {
			client = NewHTTPClient(15 * time.Second)
		}
		return NewSheetDBSource(c.Name, c.URL, c.Sheet, c.Token, c.UserAgent, client), nil
	case "xlsx":
		return NewXLSXSource(c.Name, c.Path, c.Sheet), nil
	case "postgres":
		if deps.Pool == nil {
			return nil, fmt.Errorf("source %s: postgres pool not configured", c.Name)
		}
		return postgres.NewRegistrySource(c.Name, c.Sheet, postgres.NewRegistryRepository(deps.Pool)), nil
	default:
		return nil, fmt.Errorf("unknown source kind: %s", c.Kind)
	}
}

// NewSources builds every configured source, in order.
func NewSources(cs []config.Source, deps Deps) ([]Source, error) {
	out := make([]Source, 0, len(cs))
	for _, c := range cs {
		s, err := NewFromConfig(c, deps)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// NewHTTPClient returns a client tuned for small JSON fetches.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}
