package validator

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterGin installs the custom validations on gin's binding engine so
// they can be used in `binding:"..."` tags.
func RegisterGin(enums map[string][]string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return Register(v, enums)
}

// Register adds `ethaddr` and one tag per entry of enums, where the tag
// accepts exactly the listed values.
func Register(v *validator.Validate, enums map[string][]string) error {
	if err := v.RegisterValidation("ethaddr", validateEthAddress); err != nil {
		return fmt.Errorf("failed to register ethaddr: %w", err)
	}
	for tag, values := range enums {
		if err := v.RegisterValidation(tag, oneOf(values)); err != nil {
			return fmt.Errorf("failed to register %s: %w", tag, err)
		}
	}
	return nil
}

// IsEthAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsEthAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

func validateEthAddress(fl validator.FieldLevel) bool {
	return IsEthAddress(fl.Field().String())
}

func oneOf(values []string) validator.Func {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	}
}
