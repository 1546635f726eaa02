package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/materialhub-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/materialhub-backend/api/controllers/orders"
	paymentcontrollers "github.com/angelmondragon/materialhub-backend/api/controllers/payments"
	preordercontrollers "github.com/angelmondragon/materialhub-backend/api/controllers/preorders"
	webhookcontrollers "github.com/angelmondragon/materialhub-backend/api/controllers/webhooks"
	"github.com/angelmondragon/materialhub-backend/api/middleware"
	"github.com/angelmondragon/materialhub-backend/internal/notifications"
	"github.com/angelmondragon/materialhub-backend/internal/orders"
	"github.com/angelmondragon/materialhub-backend/internal/preorders"
	"github.com/angelmondragon/materialhub-backend/pkg/config"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
)

// RedisStore backs request idempotency and the readiness probe.
type RedisStore interface {
	middleware.IdempotencyStore
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient RedisStore,
	metricsHandler http.Handler,
	preorderService preorders.Service,
	paymentService paymentcontrollers.Service,
	ordersService orders.Service,
	notificationsService notifications.Service,
	stripeClient webhookcontrollers.SigningSecretSource,
	stripeWebhookService webhookcontrollers.StripeWebhookService,
	webhookGuard webhookcontrollers.EventGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisClient,
		}, logg))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, webhookGuard, logg))
	})

	seller := middleware.RequireRole(logg, enums.UserRoleSeller)
	supplier := middleware.RequireRole(logg, enums.UserRoleSupplier)
	buyer := middleware.RequireRole(logg, enums.UserRoleBuyer)
	driver := middleware.RequireRole(logg, enums.UserRoleDriver)
	admin := middleware.RequireRole(logg, enums.UserRoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/preorder", func(r chi.Router) {
			r.With(seller).Post("/submit", preordercontrollers.Submit(preorderService, logg))
			r.With(supplier).Get("/pending", preordercontrollers.ListByStatus(preorderService, enums.PreOrderStatusPending, logg))
			r.With(supplier).Get("/accepted", preordercontrollers.ListByStatus(preorderService, enums.PreOrderStatusAccepted, logg))
			r.With(supplier).Get("/rejected", preordercontrollers.ListByStatus(preorderService, enums.PreOrderStatusRejected, logg))
			r.With(seller).Get("/seller/{sellerId}", preordercontrollers.ListForSeller(preorderService, logg))
			r.With(admin).Patch("/mark-overdue", preordercontrollers.SweepOverdue(preorderService, nil, logg))
			r.With(supplier).Patch("/{id}/action", preordercontrollers.Decide(preorderService, logg))
			r.With(seller).Patch("/{id}/pay", preordercontrollers.Pay(preorderService, logg))
			r.With(supplier).Patch("/{id}/deliver", preordercontrollers.Deliver(preorderService, logg))
			r.With(seller).Delete("/{id}", preordercontrollers.Cancel(preorderService, logg))
		})

		r.Route("/payment", func(r chi.Router) {
			r.With(seller).Post("/create-preorder-payment-intent", paymentcontrollers.CreateIntent(paymentService, enums.PaymentTargetPreOrder, logg))
			r.With(seller).Post("/confirm-preorder-payment", paymentcontrollers.Confirm(paymentService, enums.PaymentTargetPreOrder, logg))
			r.With(buyer).Post("/create-order-payment-intent", paymentcontrollers.CreateIntent(paymentService, enums.PaymentTargetOrder, logg))
			r.With(buyer).Post("/confirm-order-payment", paymentcontrollers.Confirm(paymentService, enums.PaymentTargetOrder, logg))
		})

		r.With(buyer).Get("/orders/{orderId}", ordercontrollers.Detail(ordersService, logg))
		r.With(driver).Post("/driver/deliveries/{deliveryId}/complete", ordercontrollers.CompleteDelivery(ordersService, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
			r.Post("/{id}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Delete("/{id}", controllers.AcknowledgeNotification(notificationsService, logg))
		})
	})

	return r
}
