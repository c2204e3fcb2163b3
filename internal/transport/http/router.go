package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/madmatrix/tickethub/internal/metrics"
)

type RouterDeps struct {
	Tickets     TicketService
	Page        PageRenderer
	Links       TicketLinks
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// NewRouter wires every route behind CORS and request logging.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	if d.Gatherer != nil {
		mux.Handle("/metrics", MetricsHandler(d.Gatherer))
	}
	mux.Handle("/api/lookup", HandleLookup(d.Tickets, d.Links))
	mux.Handle("/api/greeting", HandleGreeting(d.Tickets))
	mux.Handle("/api/export", HandleExport(d.Tickets))
	mux.Handle("/ticket", HandleTicket(d.Tickets))
	if d.Page != nil {
		mux.Handle("/", HandlePage(d.Page))
	} else {
		mux.Handle("/", NotFoundHandler())
	}

	return RequestLogger(CORS(d.CORSOrigins, mux), d.Logger, d.Metrics)
}
