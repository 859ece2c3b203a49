package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumierecia/restaurant-pos/api/controllers"
	ordercontrollers "github.com/lumierecia/restaurant-pos/api/controllers/orders"
	"github.com/lumierecia/restaurant-pos/api/middleware"
	"github.com/lumierecia/restaurant-pos/internal/ledger"
	"github.com/lumierecia/restaurant-pos/internal/orders"
	"github.com/lumierecia/restaurant-pos/internal/recipes"
	"github.com/lumierecia/restaurant-pos/pkg/config"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
	pkgredis "github.com/lumierecia/restaurant-pos/pkg/redis"
)

// Deps holds everything the HTTP surface calls into.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	Placer      ordercontrollers.Placer
	Orders      orders.Service
	Ledger      ledger.Service
	Recipes     *recipes.Resolver
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(deps.Idempotency, cfg.Eventing.IdempotencyTTL, logg)
	managers := middleware.RequireRole(logg, enums.EmployeeRoleManager)
	stockKeepers := middleware.RequireRole(logg, enums.EmployeeRoleManager, enums.EmployeeRoleKitchen)
	takesPayment := middleware.RequireRole(logg, enums.EmployeeRoleManager, enums.EmployeeRoleCashier, enums.EmployeeRoleServer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(idempotent).Post("/", ordercontrollers.Place(deps.Placer, deps.Orders, logg))
			r.Get("/{orderID}", ordercontrollers.Get(deps.Orders, logg))
			r.Patch("/{orderID}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.With(takesPayment, idempotent).Post("/{orderID}/pay", ordercontrollers.Pay(deps.Orders, logg))
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/low-stock", controllers.LowStock(deps.Ledger, logg))
			r.Get("/{ingredientID}/movements", controllers.Movements(deps.Ledger, logg))
			r.With(stockKeepers, idempotent).Post("/{ingredientID}/restock", controllers.Restock(deps.Ledger, logg))
			r.With(managers, idempotent).Post("/{ingredientID}/adjust", controllers.Adjust(deps.Ledger, logg))
			r.With(managers).Get("/{ingredientID}/reconcile", controllers.Reconcile(deps.Ledger, logg))
		})

		r.Get("/dishes/{dishID}/recipe", controllers.DishRecipe(deps.Recipes, logg))
	})

	return r
}
