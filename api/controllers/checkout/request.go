package checkout

import (
	"github.com/angelmondragon/checkout-shipping/internal/packages"
	"github.com/angelmondragon/checkout-shipping/pkg/enums"
)

type createSessionRequest struct {
	CustomerID *string                 `json:"customer_id,omitempty" validate:"omitempty,max=64"`
	Cart       []packages.CartLineItem `json:"cart" validate:"dive"`
}

type replaceCartRequest struct {
	Cart []packages.CartLineItem `json:"cart" validate:"required,dive"`
}

type selectMethodRequest struct {
	MethodID string `json:"method_id" validate:"required,max=64"`
}

type lockerSlotRequest struct {
	Code    *string `json:"code" validate:"omitempty,max=64"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=255"`
}

type customAddressRequest struct {
	Fields map[enums.AddressField]string `json:"fields" validate:"required,min=1,dive,max=255"`
}

type termsRequest struct {
	Accepted *bool `json:"accepted" validate:"required"`
}
