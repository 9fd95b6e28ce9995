package checkout

import (
	"net/http"

	"github.com/angelmondragon/checkout-shipping/api/validators"
	"github.com/angelmondragon/checkout-shipping/internal/wizard"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
)

func SetAddress(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		var payload wizard.AddressData
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SetAddress(r.Context(), id, payload)
	})
}

func SetPayment(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		var payload wizard.PaymentSelection
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SetPayment(r.Context(), id, payload)
	})
}

func SetTerms(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		var payload termsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SetAcceptTerms(r.Context(), id, *payload.Accepted)
	})
}

func NextStep(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		return svc.NextStep(r.Context(), id)
	})
}

func PrevStep(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		return svc.PrevStep(r.Context(), id)
	})
}

// GoToStep jumps to the numeric step in the path (0 = address, 3 = summary).
func GoToStep(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		step, err := validators.ParsePathInt(r, "step", int(wizard.StepAddress), int(wizard.StepSummary))
		if err != nil {
			return nil, err
		}
		target := wizard.Step(step)
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStep(ctx, target.String())
		}
		return svc.GoToStep(ctx, id, target)
	})
}
