package http

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// maxFormBytes bounds form bodies; wallet forms are a few fields.
const maxFormBytes = 64 << 10

// decodeForm fills the string and bool fields of the struct pointed to by
// dst from the request's form, matching on the `form` tag. Strings are
// sanitised; a bool is true for "on", "true", "1" and similar.
func decodeForm(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return bindValues(r.PostForm, dst)
}

func bindValues(values url.Values, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind form: want pointer to struct, got %T", dst)
	}
	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		raw := values.Get(name)

		switch fv := v.Field(i); fv.Kind() {
		case reflect.String:
			fv.SetString(sanitizeInput(raw))
		case reflect.Bool:
			if raw == "on" {
				fv.SetBool(true)
				continue
			}
			b, _ := strconv.ParseBool(raw)
			fv.SetBool(b)
		default:
			return fmt.Errorf("bind form: field %s has unsupported kind %s", field.Name, fv.Kind())
		}
	}
	return nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
