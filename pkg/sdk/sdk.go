package sdk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	CTJSON string = "application/json"
	CTCBOR string = "application/cbor"

	defTimeout     = 10 * time.Second
	maxErrorDetail = 512
)

// Options describes a single remote call.
type Options struct {
	Method      string
	Body        []byte
	ContentType string
}

type SDK interface {
	// Call performs one request against the remote status source. There are
	// no retries. Any failure is a *errors.FetchError.
	//
	// example:
	//  body, err := sdk.Call(ctx, "/training-status", sdk.Options{})
	//  var fe *errors.FetchError
	//  if errors.As(err, &fe) { fmt.Println(fe.Reason) }
	Call(ctx context.Context, endpoint string, opts Options) ([]byte, error)

	// GlobalStatus gets the aggregate model status.
	//
	// example:
	//  gs, _ := sdk.GlobalStatus(ctx)
	//  fmt.Println(gs.Version, gs.Accuracy)
	GlobalStatus(ctx context.Context) (training.GlobalStatus, error)

	// TrainingStatus gets the current training run status.
	TrainingStatus(ctx context.Context) (training.Status, error)

	// Metrics gets the metrics summary and per-round history.
	Metrics(ctx context.Context) (training.Summary, error)

	// Rounds lists recent federated rounds.
	Rounds(ctx context.Context) ([]training.Round, error)

	// Clients lists the participating hospitals.
	Clients(ctx context.Context) ([]training.Client, error)

	// Logs lists system log entries.
	Logs(ctx context.Context) ([]training.LogEntry, error)

	// Features lists the model's input features.
	Features(ctx context.Context) ([]prediction.Feature, error)

	// HospitalDashboard gets one hospital's local model summary.
	//
	// example:
	//  d, _ := sdk.HospitalDashboard(ctx, "h1")
	//  fmt.Println(d.ModelStatus)
	HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error)

	// LocalMetrics gets one hospital's local training history.
	LocalMetrics(ctx context.Context, hospitalID string) (training.History, error)

	// Predict scores a normalized feature vector.
	//
	// example:
	//  form := prediction.DefaultForm("P-1")
	//  resp, _ := sdk.Predict(ctx, "h1", form.Request())
	//  fmt.Println(resp.Prediction)
	Predict(ctx context.Context, hospitalID string, req prediction.Request) (prediction.Response, error)

	// StartTraining asks the remote to start a training run.
	StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error)

	// Reset returns an idle remote to its initial state.
	Reset(ctx context.Context) error
}

type cvSDK struct {
	remoteURL   string
	predictCBOR bool
	client      *http.Client
}

type Config struct {
	RemoteURL       string
	TLSVerification bool
	Timeout         time.Duration
	PredictCBOR     bool
}

func NewSDK(cfg Config) SDK {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defTimeout
	}

	return &cvSDK{
		remoteURL:   strings.TrimSuffix(cfg.RemoteURL, "/"),
		predictCBOR: cfg.PredictCBOR,
		client: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(&http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			}),
		},
	}
}

func (sdk *cvSDK) Call(ctx context.Context, endpoint string, opts Options) ([]byte, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = CTJSON
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, sdk.remoteURL+endpoint, body)
	if err != nil {
		return nil, &pkgerrors.FetchError{Endpoint: endpoint, Reason: pkgerrors.NetworkUnavailable, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return nil, &pkgerrors.FetchError{Endpoint: endpoint, Reason: pkgerrors.NetworkUnavailable, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &pkgerrors.FetchError{Endpoint: endpoint, Reason: pkgerrors.NetworkUnavailable, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &pkgerrors.FetchError{
			Endpoint: endpoint,
			Reason:   pkgerrors.BadStatus,
			Code:     resp.StatusCode,
			Detail:   errorDetail(data),
		}
	}

	return data, nil
}

// errorDetail extracts a human readable reason from an error body. Both
// {"detail": ...} and {"error": ...} shapes are understood.
func errorDetail(body []byte) string {
	var e struct {
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}

	switch d := e.Detail.(type) {
	case string:
		if d != "" {
			return truncate(d)
		}
	case nil:
	default:
		if b, err := json.Marshal(d); err == nil {
			return truncate(string(b))
		}
	}
	if e.Error != "" {
		return truncate(e.Error)
	}

	return truncate(e.Message)
}

// truncate cuts s to at most maxErrorDetail bytes on a rune boundary.
func truncate(s string) string {
	if len(s) <= maxErrorDetail {
		return s
	}
	n := maxErrorDetail
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}

type validator interface {
	Validate() error
}

// fetch decodes a successful body into v and validates it. Any decode or
// validation failure is reported as a malformed payload.
func (sdk *cvSDK) fetch(ctx context.Context, endpoint string, opts Options, v any) error {
	data, err := sdk.Call(ctx, endpoint, opts)
	if err != nil {
		return err
	}

	return decode(endpoint, data, v)
}

func decode(endpoint string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &pkgerrors.FetchError{Endpoint: endpoint, Reason: pkgerrors.Malformed, Err: err}
	}
	if val, ok := v.(validator); ok {
		if err := val.Validate(); err != nil {
			return &pkgerrors.FetchError{Endpoint: endpoint, Reason: pkgerrors.Malformed, Err: err}
		}
	}

	return nil
}

func malformed(endpoint string, err error) error {
	if err == nil {
		return nil
	}
	var fe *pkgerrors.FetchError
	if errors.As(err, &fe) {
		return err
	}

	return &pkgerrors.FetchError{Endpoint: endpoint, Reason: pkgerrors.Malformed, Err: err}
}
