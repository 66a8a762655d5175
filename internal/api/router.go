// Package api собирает HTTP маршруты сервиса.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	cancelBookingHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/complete_booking"
	confirmBookingHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/confirm_booking"
	getBookingHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/get_booking"
	getPolicyHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/get_cancellation_policy"
	previewHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/preview_cancellation"
	rescheduleHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/reschedule_booking"
	sweepHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/run_no_show_sweep"
	"github.com/m04kA/SMC-CancellationService/internal/api/middleware"
)

// Handlers все обработчики сервиса
type Handlers struct {
	GetBooking      *getBookingHandler.Handler
	Preview         *previewHandler.Handler
	CancelBooking   *cancelBookingHandler.Handler
	Reschedule      *rescheduleHandler.Handler
	ConfirmBooking  *confirmBookingHandler.Handler
	CompleteBooking *completeBookingHandler.Handler
	RunNoShowSweep  *sweepHandler.Handler
	GetPolicy       *getPolicyHandler.Handler
}

// Options необязательные части роутера. nil поля выключают соответствующую функцию.
type Options struct {
	Metrics        middleware.HTTPMetrics
	MetricsPath    string
	MetricsHandler http.Handler
	Logger         middleware.Logger
}

// NewRouter регистрирует маршруты /api/v1 и, если включено, endpoint метрик
func NewRouter(h Handlers, opts Options) *mux.Router {
	r := mux.NewRouter()

	if opts.Logger != nil {
		r.Use(middleware.Recover(opts.Logger))
	}
	if opts.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(opts.Metrics))
	}
	if opts.MetricsHandler != nil && opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, opts.MetricsHandler).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Бронирования ---
	api.HandleFunc("/bookings/{bookingId}", h.GetBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}/cancellation-preview", h.Preview.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}/cancel", h.CancelBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/reschedule", h.Reschedule.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/confirm", h.ConfirmBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/complete", h.CompleteBooking.Handle).Methods(http.MethodPatch)

	// --- Политики провайдеров ---
	api.HandleFunc("/providers/{providerId}/cancellation-policy", h.GetPolicy.Handle).Methods(http.MethodGet)

	// --- Внутренние операции ---
	api.HandleFunc("/internal/no-show-sweeps", h.RunNoShowSweep.Handle).Methods(http.MethodPost)

	return r
}
