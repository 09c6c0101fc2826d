package api

import (
	"net/http"

	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/absmach/cvdash/session"
	"github.com/absmach/cvdash/view"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*loginResponse)(nil)
	_ supermq.Response = (*logoutResponse)(nil)
	_ supermq.Response = (*sessionResponse)(nil)
	_ supermq.Response = (*viewResponse)(nil)
	_ supermq.Response = (*overviewResponse)(nil)
	_ supermq.Response = (*roundsResponse)(nil)
	_ supermq.Response = (*clientsResponse)(nil)
	_ supermq.Response = (*logsResponse)(nil)
	_ supermq.Response = (*dashboardResponse)(nil)
	_ supermq.Response = (*localMetricsResponse)(nil)
	_ supermq.Response = (*predictResponse)(nil)
	_ supermq.Response = (*listPredictionsResponse)(nil)
	_ supermq.Response = (*startTrainingResponse)(nil)
)

type loginResponse struct {
	Token      string       `json:"token"`
	Role       session.Role `json:"role"`
	HospitalID string       `json:"hospitalId,omitempty"`
}

func (res loginResponse) Code() int {
	return http.StatusCreated
}

func (res loginResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res loginResponse) Empty() bool {
	return false
}

type logoutResponse struct{}

func (res logoutResponse) Code() int {
	return http.StatusNoContent
}

func (res logoutResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res logoutResponse) Empty() bool {
	return true
}

type sessionResponse struct {
	session.Record
}

func (res sessionResponse) Code() int {
	return http.StatusOK
}

func (res sessionResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res sessionResponse) Empty() bool {
	return false
}

type viewResponse struct {
	view.Snapshot
}

func (res viewResponse) Code() int {
	return http.StatusOK
}

func (res viewResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res viewResponse) Empty() bool {
	return false
}

type overviewResponse struct {
	Global   training.GlobalStatus `json:"global"`
	Training training.Status       `json:"training"`
	Metrics  training.Summary      `json:"metrics"`
}

func (res overviewResponse) Code() int {
	return http.StatusOK
}

func (res overviewResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res overviewResponse) Empty() bool {
	return false
}

type roundsResponse struct {
	Rounds []training.Round `json:"rounds"`
}

func (res roundsResponse) Code() int {
	return http.StatusOK
}

func (res roundsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res roundsResponse) Empty() bool {
	return false
}

type clientsResponse struct {
	Clients []training.Client `json:"clients"`
}

func (res clientsResponse) Code() int {
	return http.StatusOK
}

func (res clientsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res clientsResponse) Empty() bool {
	return false
}

type logsResponse struct {
	Logs []training.LogEntry `json:"logs"`
}

func (res logsResponse) Code() int {
	return http.StatusOK
}

func (res logsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res logsResponse) Empty() bool {
	return false
}

type dashboardResponse struct {
	training.HospitalDashboard
}

func (res dashboardResponse) Code() int {
	return http.StatusOK
}

func (res dashboardResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res dashboardResponse) Empty() bool {
	return false
}

type localMetricsResponse struct {
	Rounds training.History `json:"rounds"`
}

func (res localMetricsResponse) Code() int {
	return http.StatusOK
}

func (res localMetricsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res localMetricsResponse) Empty() bool {
	return false
}

type predictResponse struct {
	prediction.Result
}

func (res predictResponse) Code() int {
	return http.StatusCreated
}

func (res predictResponse) Headers() map[string]string {
	return map[string]string{
		"Location": "/api/hospital/" + res.HospitalID + "/predictions/" + res.ID,
	}
}

func (res predictResponse) Empty() bool {
	return false
}

type listPredictionsResponse struct {
	prediction.Page
}

func (res listPredictionsResponse) Code() int {
	return http.StatusOK
}

func (res listPredictionsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res listPredictionsResponse) Empty() bool {
	return false
}

type startTrainingResponse struct {
	training.StartAck
}

func (res startTrainingResponse) Code() int {
	return http.StatusAccepted
}

func (res startTrainingResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res startTrainingResponse) Empty() bool {
	return false
}
