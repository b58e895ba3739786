package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/flicky/printmarket/pkg/model"
)

// TagName matches gin's binding tag so request structs carry one set of rules.
const TagName = "binding"

var std = New()

// New returns a validator with the marketplace rules registered.
func New() *validator.Validate {
	v := validator.New()
	v.SetTagName(TagName)
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Register adds the decimal type mapping and the material, unit, role and
// notblank rules to v. It is also applied to gin's binding engine.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	rules := map[string]validator.Func{
		"material": func(fl validator.FieldLevel) bool { return model.Material(fl.Field().String()).Valid() },
		"unit":     func(fl validator.FieldLevel) bool { return model.Unit(fl.Field().String()).Valid() },
		"role":     func(fl validator.FieldLevel) bool { return model.Role(fl.Field().String()).Valid() },
		"notblank": func(fl validator.FieldLevel) bool { return strings.TrimSpace(fl.Field().String()) != "" },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

var ginOnce sync.Once

// RegisterGin installs the rules on gin's binding validator. Safe to call
// more than once.
func RegisterGin() error {
	var err error
	ginOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
			return
		}
		err = Register(v)
	})
	return err
}

// Struct validates s with the package validator.
func Struct(s any) error {
	return std.Struct(s)
}

// Message flattens validator errors into a single client-facing sentence.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fieldMessage(fe))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s) or characters", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	case "material":
		return field + " must be one of PLA, ABS, Resin, Nylon, Custom"
	case "unit":
		return field + " must be one of mm, cm, in"
	case "role":
		return field + " must be buyer or seller"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
