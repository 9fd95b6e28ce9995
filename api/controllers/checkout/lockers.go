package checkout

import (
	"net/http"

	"github.com/angelmondragon/checkout-shipping/api/responses"
	"github.com/angelmondragon/checkout-shipping/api/validators"
	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
)

// RecentLockersList returns the lockers the customer used most recently.
func RecentLockersList(recent RecentLockers, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if recent == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "recent lockers unavailable"))
			return
		}
		customerID, err := validators.RequireQueryString(r, "customer", maxIDLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := recent.List(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"lockers": items})
	}
}
