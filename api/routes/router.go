package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DesumovJP/flowerpos/api/controllers"
	"github.com/DesumovJP/flowerpos/api/middleware"
	"github.com/DesumovJP/flowerpos/internal/pos"
	"github.com/DesumovJP/flowerpos/pkg/config"
	"github.com/DesumovJP/flowerpos/pkg/logger"
)

// RouterParams collects everything the HTTP surface depends on.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	POSService  *pos.Service
	ShiftCloser controllers.ShiftCloser
	ShiftReader controllers.ShiftReader
	// MetricsGatherer serves /metrics; nil disables the endpoint.
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, params.RedisPinger))
	})

	if params.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/pos", func(r chi.Router) {
		r.Post("/sales", controllers.RecordSale(params.POSService, logg))
		r.Post("/write-offs", controllers.RecordWriteOff(params.POSService, logg))
		r.Post("/deliveries", controllers.RecordDelivery(params.POSService, logg))
		r.Get("/items", controllers.ListItems(params.POSService, logg))
		r.Get("/activities", controllers.ListActivities(params.POSService, logg))
		r.Delete("/activities", controllers.ClearActivities(params.POSService, logg))
		r.Post("/shifts/close", controllers.CloseShift(params.ShiftCloser, logg))
		r.Get("/shifts/{date}/{workerSlug}", controllers.GetShift(params.ShiftReader, logg))
	})

	r.Route("/api/v1/admin/items", func(r chi.Router) {
		r.Post("/", controllers.CreateItem(params.POSService, logg))
		r.Patch("/{slug}", controllers.UpdateItem(params.POSService, logg))
		r.Delete("/{slug}", controllers.DeleteItem(params.POSService, logg))
	})

	return r
}
