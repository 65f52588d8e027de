// Package envstruct fills configuration structs from environment variables.
package envstruct

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

var (
	ErrEnvNotSet    = errors.New("environment variable not set")
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Populate populates the fields of the pointer to struct v with values from the environment.
//
// lookupEnv has the same signature as [os.LookupEnv]. Fields tagged with `env:"ENV_VAR"` are filled
// from ENV_VAR, falling back to the `envDefault:"value"` tag. A field without either source yields
// ErrEnvNotSet. Supported field kinds are string, bool and int; all problems are reported together.
func Populate(v any, lookupEnv func(string) (string, bool)) error {
	ptrRef := reflect.ValueOf(v)
	if ptrRef.Kind() != reflect.Ptr {
		return fmt.Errorf("%w: not pointer: %v", ErrInvalidValue, v)
	}
	ref := ptrRef.Elem()
	if ref.Kind() != reflect.Struct {
		return fmt.Errorf("%w: not struct: %v", ErrInvalidValue, v)
	}

	refType := ref.Type()
	var errorList []error

	for i := range refType.NumField() {
		field := ref.Field(i)
		structField := refType.Field(i)

		envVarName, ok := structField.Tag.Lookup("env")
		if !ok {
			continue
		}
		if !field.CanSet() {
			errorList = append(errorList, fmt.Errorf("%w: cannot set field: %s", ErrInvalidValue, structField.Name))
			continue
		}

		raw, err := envLookupWithFallback(envVarName, structField.Tag, lookupEnv)
		if err != nil {
			errorList = append(errorList, err)
			continue
		}
		if err = setField(field, raw); err != nil {
			errorList = append(errorList, fmt.Errorf("field %s (env %s): %w", structField.Name, envVarName, err))
		}
	}

	return errors.Join(errorList...)
}

func setField(field reflect.Value, raw string) error {
	switch field.Kind() { //nolint:exhaustive // everything else is unsupported
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: parse bool %q", ErrInvalidValue, raw)
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: parse int %q", ErrInvalidValue, raw)
		}
		field.SetInt(int64(n))
	default:
		return fmt.Errorf("%w: unsupported kind %s", ErrInvalidValue, field.Kind())
	}
	return nil
}

func envLookupWithFallback(
	envVarName string, tag reflect.StructTag, lookupEnv func(string) (string, bool)) (string, error) {
	envVarValue, ok := lookupEnv(envVarName)
	if !ok {
		envVarValue, ok = tag.Lookup("envDefault")
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrEnvNotSet, envVarName)
		}
	}
	return envVarValue, nil
}
