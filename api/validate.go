package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/warp/clientdesk/desk"
)

// newValidator reports JSON field names instead of Go field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 10 << 20

// decodeJSON reads the request body into dst and validates it. An empty body
// decodes as the zero value so optional-body endpoints accept it.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var ve *desk.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return desk.Invalid("body", fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
		}
		return &desk.ValidationError{Field: "body", Message: "Invalid request body: " + err.Error()}
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}
	return nil
}

// fieldError converts the first failed tag into a desk.ValidationError named
// after the JSON path, e.g. "to[1]" or "attachments[0].filename".
func fieldError(fe validator.FieldError) error {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", fe.Field())
	case "min":
		msg = fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param())
	case "email":
		msg = fmt.Sprintf("%q is not a valid email address", fe.Value())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datetime":
		msg = fmt.Sprintf("%s must be a date (YYYY-MM-DD)", fe.Field())
	default:
		msg = fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag())
	}
	return desk.Invalid(field, msg)
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, desk.Invalid(name, fmt.Sprintf("%q is not a valid id", raw))
	}
	return id, nil
}
