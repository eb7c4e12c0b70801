package handler

import (
	"net/http"

	"github.com/rafaelmp/banco-digital-go/internal/infra/observability"
	"github.com/rafaelmp/banco-digital-go/internal/infra/resilience"
	"github.com/rafaelmp/banco-digital-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(bankSvc *service.BankService, authSvc *service.AuthService, metrics *observability.Metrics, bh *resilience.Bulkhead, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(requestMetricsMiddleware(metrics))
	if bh != nil {
		r.Use(BulkheadMiddleware(bh))
	}

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(bankSvc))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. 🔐 Autenticação (public)
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(authSvc, logger))
			r.Post("/login", authLoginHandler(authSvc, logger))
			r.Post("/refresh", authRefreshHandler(authSvc, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(authSvc, logger))
				r.Post("/logout", authLogoutHandler(authSvc, logger))
			})
		})

		// =============================================
		// Protected routes (JWT required)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			// 2. 👤 Cliente
			r.Get("/me", meHandler(authSvc, logger))

			// 3. 🏦 Contas
			r.Post("/accounts", createAccountHandler(bankSvc, logger))
			r.Get("/accounts", listAccountsHandler(bankSvc, logger))
			r.Get("/accounts/{accountId}", getAccountHandler(bankSvc, logger))
			r.Post("/accounts/{accountId}/deposit", depositHandler(bankSvc, logger))
			r.Post("/accounts/{accountId}/withdraw", withdrawHandler(bankSvc, logger))
			r.Get("/accounts/{accountId}/balance", getBalanceHandler(bankSvc, logger))
			r.Get("/accounts/{accountId}/statement", statementHandler(bankSvc, logger))

			// 4. 💸 Transferências
			r.Post("/transfers", createTransferHandler(bankSvc, logger))
			r.Get("/transfers", listTransfersHandler(bankSvc, logger))

			// 5. 💳 Cartões
			r.Post("/cards/request", cardRequestHandler(bankSvc, logger))
			r.Get("/cards", listCardsHandler(bankSvc, logger))
			r.Post("/cards/spend", cardSpendHandler(bankSvc, logger))
			r.Get("/cards/{cardId}/spends", listCardSpendsHandler(bankSvc, logger))

			// 6. 🧾 Empréstimos
			r.Post("/loans/request", loanRequestHandler(bankSvc, logger))
			r.Get("/loans", listLoansHandler(bankSvc, logger))
			r.Get("/loans/{loanId}/installments", listInstallmentsHandler(bankSvc, logger))
			r.Post("/installments/{installmentId}/pay", payInstallmentHandler(bankSvc, logger))

			// 7. 📊 Métricas do motor
			r.Get("/metrics/engine", engineMetricsHandler(metrics, logger))
		})
	})

	return r
}

// ============================================================
// Health & Métricas
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler(bankSvc *service.BankService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := bankSvc.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := metrics.GetEngineSnapshot()
		writeJSON(w, http.StatusOK, snapshot)
	}
}

// requestMetricsMiddleware counts finished requests by outcome.
func requestMetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= 500 {
				metrics.IncrRequest("error")
				return
			}
			metrics.IncrRequest("success")
		})
	}
}
