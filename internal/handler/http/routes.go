package http

import (
	"net/http"

	"github.com/MKhiriev/go-natours/internal/pipeline"
	"github.com/MKhiriev/go-natours/models"
	"github.com/go-chi/chi/v5"
)

// API mount points.
const (
	toursPrefix    = "/api/v1/tours"
	usersPrefix    = "/api/v1/users"
	reviewsPrefix  = "/api/v1/reviews"
	bookingsPrefix = "/api/v1/bookings"
)

// Init assembles the ingress pipeline in front of the routers.
func (h *Handler) Init() http.Handler {
	return h.Pipeline().Then(h.Routes())
}

// Pipeline returns the ordered ingress filters. Order matters:
//   - CORS answers preflights before anything can reject the OPTIONS verb;
//   - static assets short-circuit before security and parsing work;
//   - the rate limiter sees every /api request, including malformed ones;
//   - the webhook reads its raw bytes before the body governor consumes them;
//   - operator keys are stripped before XSS cleaning rewrites strings.
func (h *Handler) Pipeline() *pipeline.Chain {
	chain := pipeline.New(h.fail,
		h.traceID(),
		h.corsFilter(),
		h.compression(),
		h.static(),
		h.securityHeaders(),
	)
	if h.cfg.App.IsDevelopment() {
		chain.Use(h.requestLogging())
	}
	if h.cfg.RateLimit.TrustProxy {
		chain.Use(h.realIP())
	}
	return chain.Use(
		h.rateLimit(),
		h.webhook(),
		h.bodyGovernor(),
		h.sanitizeNoSQL(),
		h.sanitizeXSS(),
		h.parameterPollution(),
	)
}

// Routes mounts the domain routers. The view router owns "/" and so only
// receives what no API prefix claims; anything left over reaches fallback.
func (h *Handler) Routes() *Dispatcher {
	d := NewDispatcher(http.HandlerFunc(h.fallback))
	d.Mount(toursPrefix, h.tourRouter())
	d.Mount(usersPrefix, h.userRouter())
	d.Mount(reviewsPrefix, h.reviewRouter())
	d.Mount(bookingsPrefix, h.bookingRouter())
	d.Mount("/", h.viewRouter())
	return d
}

// newRouter returns a chi router whose unmatched paths and methods go to
// the fallback handler.
func (h *Handler) newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.NotFound(h.fallback)
	r.MethodNotAllowed(h.fallback)
	return r
}

var (
	tours    = resource{collection: models.CollectionTours, singular: "tour"}
	users    = resource{collection: models.CollectionUsers, singular: "user"}
	reviews  = resource{collection: models.CollectionReviews, singular: "review"}
	bookings = resource{collection: models.CollectionBookings, singular: "booking"}
)

func (h *Handler) tourRouter() http.Handler {
	r := h.newRouter()

	r.Get("/", h.handle(h.listDocuments(tours)))
	r.Get("/top-5-cheap", h.handle(h.aliasTopTours(h.listDocuments(tours))))
	r.Get("/{id}", h.handle(h.getDocument(tours)))

	r.Group(func(r chi.Router) {
		r.Use(h.protect, h.restrictTo(models.RoleAdmin, models.RoleLeadGuide))
		r.Post("/", h.handle(h.createDocument(tours)))
		r.Patch("/{id}", h.handle(h.updateDocument(tours)))
		r.Delete("/{id}", h.handle(h.deleteDocument(tours)))
	})

	return r
}

func (h *Handler) reviewRouter() http.Handler {
	r := h.newRouter()

	r.Get("/", h.handle(h.listDocuments(reviews)))
	r.Get("/{id}", h.handle(h.getDocument(reviews)))

	r.Group(func(r chi.Router) {
		r.Use(h.protect)
		r.With(h.restrictTo(models.RoleUser)).Post("/", h.handle(h.createReview))
		r.With(h.restrictTo(models.RoleUser, models.RoleAdmin)).Patch("/{id}", h.handle(h.updateDocument(reviews)))
		r.With(h.restrictTo(models.RoleUser, models.RoleAdmin)).Delete("/{id}", h.handle(h.deleteDocument(reviews)))
	})

	return r
}

func (h *Handler) bookingRouter() http.Handler {
	r := h.newRouter()
	r.Use(h.protect, h.restrictTo(models.RoleAdmin, models.RoleLeadGuide))

	r.Get("/", h.handle(h.listDocuments(bookings)))
	r.Post("/", h.handle(h.createDocument(bookings)))
	r.Get("/{id}", h.handle(h.getDocument(bookings)))
	r.Patch("/{id}", h.handle(h.updateDocument(bookings)))
	r.Delete("/{id}", h.handle(h.deleteDocument(bookings)))

	return r
}

func (h *Handler) userRouter() http.Handler {
	r := h.newRouter()

	r.Post("/signup", h.handle(h.signup))
	r.Post("/login", h.handle(h.login))
	r.Get("/logout", h.handle(h.logout))

	r.Group(func(r chi.Router) {
		r.Use(h.protect)
		r.Patch("/updateMyPassword", h.handle(h.updateMyPassword))
		r.Get("/me", h.handle(h.me))
		r.Patch("/updateMe", h.handle(h.updateMe))
		r.Delete("/deleteMe", h.handle(h.deleteMe))

		r.Group(func(r chi.Router) {
			r.Use(h.restrictTo(models.RoleAdmin))
			r.Get("/", h.handle(h.listDocuments(users)))
			r.Post("/", h.handle(h.createDocument(users)))
			r.Get("/{id}", h.handle(h.getDocument(users)))
			r.Patch("/{id}", h.handle(h.updateDocument(users)))
			r.Delete("/{id}", h.handle(h.deleteDocument(users)))
		})
	})

	return r
}

func (h *Handler) viewRouter() http.Handler {
	r := h.newRouter()
	r.Get("/", h.handle(h.overviewPage))
	r.Get("/tour/{id}", h.handle(h.tourPage))
	return r
}
