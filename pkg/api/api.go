package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType = "application/json"

	MaxLimitSize = 100
)

type errorRes struct {
	Err    string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Field  string `json:"field,omitempty"`
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

// StatusCode maps the error taxonomy onto HTTP status codes.
func StatusCode(err error) int {
	var aerr *pkgerrors.ActionError
	switch {
	case errors.As(err, &aerr) && aerr.Reason == pkgerrors.Rejected:
		return http.StatusConflict
	case errors.Is(err, apiutil.ErrValidation),
		errors.Is(err, pkgerrors.ErrValidationFailed),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, pkgerrors.ErrInvalidData):
		return http.StatusBadRequest
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, pkgerrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pkgerrors.ErrConflict),
		errors.Is(err, pkgerrors.ErrEntityExists):
		return http.StatusConflict
	case errors.Is(err, pkgerrors.ErrUnreachable),
		errors.Is(err, pkgerrors.ErrNetworkUnavailable),
		errors.Is(err, pkgerrors.ErrBadStatus),
		errors.Is(err, pkgerrors.ErrMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(StatusCode(err))

	res := errorRes{Err: err.Error()}
	var (
		aerr *pkgerrors.ActionError
		verr *pkgerrors.ValidationError
	)
	if errors.As(err, &aerr) {
		res.Detail = aerr.Detail
	}
	if errors.As(err, &verr) {
		res.Field = verr.Field
		res.Detail = verr.Reason
	}

	if err := json.NewEncoder(w).Encode(res); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
