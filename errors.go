package htm

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

var (
	// ErrInvalidConfig is matched by every configuration error returned from
	// a constructor or a params loader.
	ErrInvalidConfig = errors.New("htm: invalid configuration")

	// ErrDimensionMismatch is returned when an algorithm is attached to a
	// graph whose shape does not fit its params.
	ErrDimensionMismatch = errors.New("htm: dimension mismatch")
)

// ConfigError describes one rejected parameter.
type ConfigError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("htm: invalid %s (%v): %s", e.Param, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configErr(param string, value interface{}, format string, args ...interface{}) error {
	return &ConfigError{Param: param, Value: value, Reason: fmt.Sprintf(format, args...)}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateTags runs the struct tag rules and turns each failure into a
// ConfigError.
func validateTags(params interface{}) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var result error
	for _, fe := range fieldErrs {
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		result = multierr.Append(result, configErr(fe.Namespace(), fe.Value(), "violates %s", reason))
	}
	return result
}

// ConfigErrors flattens an error returned by a constructor into the
// individual parameter failures it carries.
func ConfigErrors(err error) []*ConfigError {
	var result []*ConfigError
	for _, e := range multierr.Errors(err) {
		var ce *ConfigError
		if errors.As(e, &ce) {
			result = append(result, ce)
		}
	}
	return result
}
