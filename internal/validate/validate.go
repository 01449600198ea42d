package validate

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// New returns the shared validator. decimal.Decimal fields are validated as
// float64 so numeric tags like gte and lte apply to money.
func New() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	})
	return validate
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

// Struct validates s and wraps any failure with errors.ErrValidation.
func Struct(c context.Context, s interface{}) error {
	if err := New().StructCtx(c, s); err != nil {
		return fmt.Errorf("%w: %w", inErrors.ErrValidation, err)
	}
	return nil
}
