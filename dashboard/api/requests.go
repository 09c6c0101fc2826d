package api

import (
	"github.com/absmach/cvdash/pkg/api"
	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/prediction"
	apiutil "github.com/absmach/supermq/api/http/util"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req *loginReq) validate() error {
	if req.Username == "" {
		return pkgerrors.NewValidationError("username", "required")
	}
	if req.Password == "" {
		return pkgerrors.NewValidationError("password", "required")
	}

	return nil
}

type hospitalReq struct {
	hospitalID string
}

func (req *hospitalReq) validate() error {
	if req.hospitalID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type predictReq struct {
	hospitalID string
	prediction.Form
}

func (req *predictReq) validate() error {
	if req.hospitalID == "" {
		return apiutil.ErrMissingID
	}

	return req.Form.Validate()
}

type listPredictionsReq struct {
	hospitalID    string
	offset, limit uint64
}

func (req *listPredictionsReq) validate() error {
	if req.hospitalID == "" {
		return apiutil.ErrMissingID
	}
	if req.limit == 0 || req.limit > api.MaxLimitSize {
		return apiutil.ErrLimitSize
	}

	return nil
}
