package api

import (
	"encoding/json"
	"net/http"

	"github.com/absmach/supermq"
)

var _ supermq.Response = (*response)(nil)

// response carries the bare payload; the remote API has no envelope.
type response struct {
	body any
	code int
}

func newResponse(body any) response {
	return response{body: body, code: http.StatusOK}
}

func (res response) Code() int {
	return res.code
}

func (res response) Headers() map[string]string {
	return map[string]string{}
}

func (res response) Empty() bool {
	return false
}

func (res response) MarshalJSON() ([]byte, error) {
	return json.Marshal(res.body)
}

type messageRes struct {
	Message string `json:"message"`
}

type errorRes struct {
	Detail string `json:"detail"`
}
