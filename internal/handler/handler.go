package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	customError "github.com/segyhp/league-ledger/pkg/errors"
	"github.com/segyhp/league-ledger/pkg/response"
)

// newValidator returns a validator that compares decimal amounts as numbers.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func decodeAndValidate(r *http.Request, v *validator.Validate, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return customError.WrapValidation("invalid request body: %v", err)
	}
	if err := v.Struct(dst); err != nil {
		return customError.WrapValidation("%v", err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, customError.WrapValidation("invalid %s %q", name, raw)
	}
	return id, nil
}

// writeError maps business error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var bizErr *customError.BusinessError
	if !errors.As(err, &bizErr) {
		response.InternalServerError(w, "Internal server error", err)
		return
	}

	switch bizErr.Code {
	case customError.ErrCodeValidation:
		response.BadRequest(w, bizErr.Message, bizErr.Err)
	case customError.ErrCodeNotFound:
		response.NotFound(w, bizErr.Message)
	case customError.ErrCodeRunInProgress:
		response.Conflict(w, bizErr.Message, nil)
	case customError.ErrCodeDispatch:
		response.Error(w, http.StatusBadGateway, bizErr.Message, bizErr.Err)
	default:
		response.InternalServerError(w, bizErr.Message, fmt.Errorf("%s", bizErr.Code))
	}
}
