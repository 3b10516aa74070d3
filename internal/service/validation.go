package service

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"stockledger/internal/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// maxAmount is the largest value a DECIMAL(12,2) column holds.
var maxAmount = decimal.RequireFromString("9999999999.99")

// maxStockUnits is the largest value of the INT stock column.
const maxStockUnits = math.MaxInt32

func init() {
	// Register decimal.Decimal as a numeric type so that tags like min=0 and
	// gt=0 work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report fields by their JSON name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// validateStruct runs the validator tags and converts failures into an
// apierror.ValidationError keyed by JSON field name.
func validateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierror.Invalid("body", err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return apierror.NewValidation(fields)
}

// checkAmount records a problem with a money field: more than two decimal
// places or a value the store cannot hold.
func checkAmount(fields map[string]string, name string, d decimal.Decimal) {
	if !d.Equal(d.Round(2)) {
		fields[name] = "max 2 decimal places"
		return
	}
	if d.Abs().GreaterThan(maxAmount) {
		fields[name] = "out of range"
	}
}

func requireOwner(ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return apierror.Invalid("owner_id", "required")
	}
	return nil
}

func merge(err error, fields map[string]string) error {
	if len(fields) == 0 {
		return err
	}
	var verr *apierror.ValidationError
	if errors.As(err, &verr) {
		for k, v := range fields {
			if _, exists := verr.Fields[k]; !exists {
				verr.Fields[k] = v
			}
		}
		return verr
	}
	return apierror.NewValidation(fields)
}
