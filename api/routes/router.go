package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookhavenhq/bookhaven-backend/api/controllers"
	"github.com/bookhavenhq/bookhaven-backend/api/middleware"
	addresssvc "github.com/bookhavenhq/bookhaven-backend/internal/address"
	authsvc "github.com/bookhavenhq/bookhaven-backend/internal/auth"
	catalogsvc "github.com/bookhavenhq/bookhaven-backend/internal/catalog"
	circulationsvc "github.com/bookhavenhq/bookhaven-backend/internal/circulation"
	reservationsvc "github.com/bookhavenhq/bookhaven-backend/internal/reservations"
	shelvingsvc "github.com/bookhavenhq/bookhaven-backend/internal/shelving"
	"github.com/bookhavenhq/bookhaven-backend/pkg/config"
	"github.com/bookhavenhq/bookhaven-backend/pkg/db"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
	"github.com/bookhavenhq/bookhaven-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth         authsvc.Service
	Catalog      catalogsvc.Service
	Shelving     shelvingsvc.Service
	Circulation  circulationsvc.Service
	Reservations reservationsvc.Service
	Address      addresssvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	services Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(services.Auth, logg))
		r.Post("/register", controllers.AuthRegister(services.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/books", func(r chi.Router) {
			r.Get("/", controllers.ListBooks(services.Catalog, logg))
			r.Get("/browse", controllers.BrowseInventory(services.Catalog, logg))
			r.Get("/search", controllers.SearchBooks(services.Catalog, logg))
			r.Get("/isbn/{isbn}", controllers.FindBookByISBN(services.Catalog, logg))
			r.Get("/{bookId}", controllers.GetBook(services.Catalog, logg))
			r.Get("/{bookId}/waiting-list", controllers.WaitingList(services.Reservations, logg))
		})

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", controllers.CheckoutBook(services.Circulation, logg))
			r.Post("/return", controllers.ReturnBook(services.Circulation, logg))
			r.Get("/", controllers.ListMyLoans(services.Circulation, logg))
			r.Get("/{loanId}/status", controllers.LoanStatus(services.Circulation, logg))
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", controllers.CreateReservation(services.Reservations, logg))
			r.Post("/{reservationId}/cancel", controllers.CancelReservation(services.Reservations, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(services.Address, logg))
			r.Post("/", controllers.AddressCreate(services.Address, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(services.Address, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(services.Address, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/books", func(r chi.Router) {
			r.Post("/", controllers.CreateBook(services.Catalog, logg))
			r.Delete("/{bookId}", controllers.DeleteBook(services.Catalog, logg))
			r.Get("/value-report", controllers.BookValueReport(services.Catalog, logg))
		})

		r.Route("/shelves", func(r chi.Router) {
			r.Get("/", controllers.ListShelves(services.Shelving, logg))
			r.Post("/", controllers.CreateShelf(services.Shelving, logg))
			r.Get("/danger-scan", controllers.DangerScan(services.Shelving, logg))
			r.Get("/{shelfId}", controllers.GetShelf(services.Shelving, logg))
			r.Post("/{shelfId}/assign", controllers.AssignBook(services.Shelving, logg))
			r.Post("/{shelfId}/optimize", controllers.OptimizeShelf(services.Shelving, logg))
		})
		r.Delete("/shelf-assignments/{bookId}", controllers.UnassignBook(services.Shelving, logg))

		r.Route("/stats", func(r chi.Router) {
			r.Get("/loans", controllers.LoanStats(services.Circulation, logg))
			r.Get("/reservations", controllers.ReservationStats(services.Reservations, logg))
		})
	})

	return r
}
