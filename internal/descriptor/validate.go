package descriptor

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-version"
)

// expressionStart marks a value that is resolved later and cannot be
// checked for shape here.
const expressionStart = "{{"

// validateStructure runs the ordered structural checks against the raw tree.
// It stops at the first failure.
func validateStructure(path string, raw map[string]any) error {
	versions, err := requireSection(path, raw, SectionVersions)
	if err != nil {
		return err
	}
	components, err := requireSection(path, raw, SectionComponents)
	if err != nil {
		return err
	}

	for _, key := range RequiredVersionKeys {
		if _, ok := versions[key]; !ok {
			return newError(ErrMissingVersionKey, path, SectionVersions+"."+key, nil)
		}
	}

	spark, ok := components[ComponentSpark].(map[string]any)
	if !ok {
		return newError(ErrMissingComponentField, path, ComponentSpark, nil)
	}
	for _, field := range RequiredSparkFields {
		if _, ok := spark[field]; !ok {
			return newError(ErrMissingComponentField, path, ComponentSpark+"."+field, nil)
		}
	}

	s3a, ok := spark["s3a"].(map[string]any)
	if !ok {
		return newError(ErrMissingComponentField, path, ComponentSpark+".s3a", errors.New("s3a must be a mapping"))
	}
	for _, flag := range RequiredS3AFlags {
		value, ok := s3a[flag]
		if !ok {
			return newError(ErrMissingFlag, path, ComponentSpark+".s3a."+flag, nil)
		}
		if _, isBool := value.(bool); !isBool {
			return newError(ErrInvalidValue, path, ComponentSpark+".s3a."+flag, fmt.Errorf("expected boolean, got %T", value))
		}
	}

	return nil
}

func requireSection(path string, raw map[string]any, name string) (map[string]any, error) {
	section, ok := raw[name].(map[string]any)
	if !ok || len(section) == 0 {
		return nil, newError(ErrMissingSection, path, name, nil)
	}
	return section, nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// valueValidator returns the shared validator with the descriptor tags
// registered. Field names in errors use the yaml keys.
func valueValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("version", validVersion)
		_ = v.RegisterValidation("port", validPort)
		validate = v
	})
	return validate
}

func validVersion(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.Contains(s, expressionStart) {
		return true
	}
	_, err := version.NewVersion(s)
	return err == nil
}

func validPort(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.Contains(s, expressionStart) {
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= 65535
}

// validateValues checks the typed records. Only the first failure is reported
// to keep the short-circuit behavior of the structural checks.
func validateValues(path string, doc *Document) error {
	checks := []struct {
		section string
		value   any
	}{
		{SectionVersions, &doc.versions},
		{SectionComponents, &doc.components},
	}

	for _, check := range checks {
		err := valueValidator().Struct(check.value)
		if err == nil {
			continue
		}

		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return newError(ErrInvalidValue, path, check.section, err)
		}

		fe := fieldErrs[0]
		field := check.section + "." + trimNamespace(fe.Namespace())
		return newError(ErrInvalidValue, path, field, fmt.Errorf("failed %q check (value %q)", fe.Tag(), fmt.Sprint(fe.Value())))
	}

	return nil
}

// trimNamespace drops the leading struct type name from a validator namespace.
func trimNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
