package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
)

// WrapError maps a gorm error onto the service error codes. A missing record
// becomes NOT_FOUND; everything else, timeouts included, is a dependency failure.
func WrapError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, op)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+": timed out")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
