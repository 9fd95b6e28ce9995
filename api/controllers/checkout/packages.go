package checkout

import (
	"math"
	"net/http"

	"github.com/angelmondragon/checkout-shipping/api/validators"
	checkoutsvc "github.com/angelmondragon/checkout-shipping/internal/checkout"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
)

func packageID(r *http.Request) (string, error) {
	return validators.RequirePathString(r, "packageID", maxIDLen)
}

// SelectMethod picks the shipping method of one package.
func SelectMethod(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		pkgID, err := packageID(r)
		if err != nil {
			return nil, err
		}
		var payload selectMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SelectMethod(r.Context(), id, pkgID, payload.MethodID)
	})
}

// SetLockerSlot assigns or clears the locker of one slot.
func SetLockerSlot(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		pkgID, err := packageID(r)
		if err != nil {
			return nil, err
		}
		// The upper bound is the package's slot count, checked by the service.
		slot, err := validators.ParsePathInt(r, "slot", 0, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		var payload lockerSlotRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SetLockerSlot(r.Context(), id, pkgID, checkoutsvc.LockerInput{
			SlotIndex: slot,
			Code:      payload.Code,
			Address:   payload.Address,
		})
	})
}

// ToggleCustomAddress flips the package address override.
func ToggleCustomAddress(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		pkgID, err := packageID(r)
		if err != nil {
			return nil, err
		}
		return svc.ToggleCustomAddress(r.Context(), id, pkgID)
	})
}

// UpdateCustomAddress writes override address fields.
func UpdateCustomAddress(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, http.StatusOK, func(r *http.Request, id string) (any, error) {
		pkgID, err := packageID(r)
		if err != nil {
			return nil, err
		}
		var payload customAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdateCustomAddressFields(r.Context(), id, pkgID, payload.Fields)
	})
}
