package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// applyEnvOverrides copies every variable named by an `env` tag onto the
// matching field. Nested structs are walked; unset variables keep the value
// loaded from YAML or defaults.
func applyEnvOverrides(target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("env overrides need a struct pointer, got %T", target)
	}
	return walkEnv(v.Elem(), "")
}

func walkEnv(v reflect.Value, path string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		name := sf.Name
		if path != "" {
			name = path + "." + sf.Name
		}

		if fv.Kind() == reflect.Struct {
			if err := walkEnv(fv, name); err != nil {
				return err
			}
			continue
		}

		key := sf.Tag.Get("env")
		if key == "" {
			continue
		}
		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := assignEnv(fv, raw); err != nil {
			return fmt.Errorf("%s (%s): %w", key, name, err)
		}
	}
	return nil
}

// assignEnv parses raw into the field's kind. Slices of strings are comma
// separated, blanks dropped.
func assignEnv(fv reflect.Value, raw string) error {
	if !fv.CanSet() {
		return fmt.Errorf("field is not settable")
	}

	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", fv.Type().Elem())
		}
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported kind %s", fv.Kind())
	}
	return nil
}
