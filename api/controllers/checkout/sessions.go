package checkout

import (
	"net/http"

	"github.com/angelmondragon/checkout-shipping/api/responses"
	"github.com/angelmondragon/checkout-shipping/api/validators"
	checkoutsvc "github.com/angelmondragon/checkout-shipping/internal/checkout"
	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
)

const maxIDLen = 128

// sessionHandler resolves the {id} path parameter and writes whatever fn
// returns in the success envelope.
func sessionHandler(svc Service, logg *logger.Logger, status int, fn func(r *http.Request, id string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		id, err := validators.RequirePathString(r, "id", maxIDLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, id)
		}
		data, err := fn(r.WithContext(ctx), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if data == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		responses.WriteSuccessStatus(w, status, data)
	}
}

// CreateSession starts a checkout session, optionally seeded with a cart.
func CreateSession(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload createSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), checkoutsvc.CreateInput{
			CustomerID: payload.CustomerID,
			Cart:       payload.Cart,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// GetSession returns the session view.
func GetSession(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		return svc.Get(r.Context(), id)
	})
}

// AbandonSession discards the session.
func AbandonSession(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusNoContent, func(r *http.Request, id string) (any, error) {
		return nil, svc.Abandon(r.Context(), id)
	})
}

// ReplaceCart stores the new cart and regroups it into packages.
func ReplaceCart(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		var payload replaceCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.ReplaceCart(r.Context(), id, payload.Cart)
	})
}

// RefreshOptions re-runs the shipping resolver for the stored cart.
func RefreshOptions(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		return svc.Refresh(r.Context(), id)
	})
}

// Readiness lists what still blocks submission.
func Readiness(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		return svc.Readiness(r.Context(), id)
	})
}

// Submit places the order.
func Submit(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusCreated, func(r *http.Request, id string) (any, error) {
		return svc.Submit(r.Context(), id)
	})
}
