package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/example/room-ledger/internal/application"
	"github.com/example/room-ledger/internal/ledger"
)

const maxBodyBytes = 1 << 20

// IsoDate accepts calendar dates formatted as YYYY-MM-DD.
var IsoDate validator.Func = func(fl validator.FieldLevel) bool {
	_, err := ledger.ParseDay(fl.Field().String())
	return err == nil
}

// RoomCode accepts room identifiers without whitespace.
var RoomCode validator.Func = func(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value != "" && strings.IndexFunc(value, unicode.IsSpace) < 0
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("isodate", IsoDate)
	_ = v.RegisterValidation("roomcode", RoomCode)
	return v
}

// slotValue accepts a timeslot label or a slot index in JSON.
type slotValue string

func (s *slotValue) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*s = slotValue(label)
		return nil
	}
	var index int
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("slot must be a label or an index: %w", err)
	}
	*s = slotValue(strconv.Itoa(index))
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// validationError converts validator failures into field errors keyed by JSON name.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		vErr.FieldErrors[fe.Field()] = validationMessage(fe)
	}
	return vErr
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "isodate":
		return fe.Field() + " must be formatted as YYYY-MM-DD"
	case "roomcode":
		return fe.Field() + " must not contain whitespace"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}
