// Package fallback fabricates shape-compatible dashboard data when the
// remote status source cannot be reached. Every call waits an artificial
// delay on the injected clock before answering.
package fallback

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"k8s.io/utils/clock"
)

const (
	ModelVersion = "2.4.1"

	globalRounds       = 47
	connectedHospitals = 8
	historyFirstRound  = 28
	historyLen         = 20
	roundsTableLen     = 10
	localFirstRound    = 33
	localLen           = 15
	predictionHistLen  = 15

	syntheticNote = "Synthetic prediction: remote model unavailable"
)

var (
	globalStatusDelay  = 300 * time.Millisecond
	roundsDelay        = 400 * time.Millisecond
	clientsDelay       = 350 * time.Millisecond
	logsDelay          = 250 * time.Millisecond
	metricsDelay       = 300 * time.Millisecond
	statusDelay        = 200 * time.Millisecond
	dashboardDelay     = 300 * time.Millisecond
	startTrainingDelay = 500 * time.Millisecond
	predictDelay       = 600 * time.Millisecond
	historyDelay       = 400 * time.Millisecond
	localMetricsDelay  = 350 * time.Millisecond
	featuresDelay      = 200 * time.Millisecond
)

type Config struct {
	Disabled bool `env:"DISABLED"    envDefault:"false"`
	// DelayScale multiplies the artificial delays; 0 answers immediately.
	DelayScale    float64       `env:"DELAY_SCALE"    envDefault:"1"`
	Seed          uint64        `env:"SEED"           envDefault:"0"`
	Rounds        uint64        `env:"ROUNDS"         envDefault:"5"`
	RoundDuration time.Duration `env:"ROUND_DURATION" envDefault:"4s"`
}

// Generator is safe for concurrent use.
type Generator struct {
	cfg   Config
	clock clock.PassiveClock
	wait  func(d time.Duration) <-chan time.Time

	mu       sync.Mutex
	rng      *rand.Rand
	runStart *time.Time
}

func New(cfg Config, clk clock.Clock) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(clk.Now().UnixNano())
	}
	if cfg.Rounds == 0 {
		cfg.Rounds = 5
	}
	if cfg.RoundDuration <= 0 {
		cfg.RoundDuration = 4 * time.Second
	}

	return &Generator{
		cfg:   cfg,
		clock: clk,
		wait:  clk.After,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// delay blocks for the scaled artificial delay. It fails when the generator
// is disabled or the context ends first.
func (g *Generator) delay(ctx context.Context, base time.Duration) error {
	if g.cfg.Disabled {
		return pkgerrors.ErrFallbackDisabled
	}
	d := time.Duration(float64(base) * g.cfg.DelayScale)
	if d <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.wait(d):
		return nil
	}
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.rng.Float64()
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.rng.IntN(n)
}

func (g *Generator) GlobalStatus(ctx context.Context) (training.GlobalStatus, error) {
	if err := g.delay(ctx, globalStatusDelay); err != nil {
		return training.GlobalStatus{}, err
	}

	return training.GlobalStatus{
		Version:            ModelVersion,
		TotalRounds:        globalRounds,
		ConnectedHospitals: connectedHospitals,
		Accuracy:           0.8923,
		Loss:               0.2134,
		LastUpdate:         g.clock.Now().UTC(),
		Status:             "active",
	}, nil
}

// TrainingStatus reports the synthetic run started by StartTraining, which
// advances one round per RoundDuration on the injected clock.
func (g *Generator) TrainingStatus(ctx context.Context) (training.Status, error) {
	if err := g.delay(ctx, statusDelay); err != nil {
		return training.Status{}, err
	}

	g.mu.Lock()
	start := g.runStart
	g.mu.Unlock()

	total := g.cfg.Rounds
	if start == nil {
		return training.Status{Status: training.Idle, TotalRounds: total}, nil
	}

	begin := *start
	round := uint64(g.clock.Since(begin) / g.cfg.RoundDuration)
	if round >= total {
		end := begin.Add(time.Duration(total) * g.cfg.RoundDuration)

		return training.Status{
			Status:       training.Completed,
			CurrentRound: total,
			TotalRounds:  total,
			Progress:     1,
			StartTime:    &begin,
			EndTime:      &end,
		}, nil
	}

	return training.Status{
		Status:       training.Training,
		CurrentRound: round,
		TotalRounds:  total,
		Progress:     float64(round) / float64(total),
		StartTime:    &begin,
	}, nil
}

func (g *Generator) history(first uint64, n int, accStep, lossBase, lossStep float64) training.History {
	h := make(training.History, 0, n)
	for i := range n {
		fi := float64(i)
		h = append(h, training.RoundMetrics{
			Round:    first + uint64(i),
			Accuracy: round4(0.78 + fi*accStep + g.float()*0.01),
			Loss:     round4(math.Max(0, lossBase-fi*lossStep-g.float()*0.01)),
		})
	}

	return h
}

func (g *Generator) Metrics(ctx context.Context) (training.Summary, error) {
	if err := g.delay(ctx, metricsDelay); err != nil {
		return training.Summary{}, err
	}

	return training.Summarize(g.history(historyFirstRound, historyLen, 0.005, 0.35, 0.005)), nil
}

// Rounds lists the most recent rounds, newest first.
func (g *Generator) Rounds(ctx context.Context) ([]training.Round, error) {
	if err := g.delay(ctx, roundsDelay); err != nil {
		return nil, err
	}

	now := g.clock.Now().UTC()
	rounds := make([]training.Round, 0, roundsTableLen)
	for i := uint64(globalRounds); i > globalRounds-roundsTableLen; i-- {
		rounds = append(rounds, training.Round{
			ID:                   i,
			RoundNumber:          i,
			Accuracy:             round4(0.85 + g.float()*0.05),
			Loss:                 round4(0.25 - g.float()*0.05),
			ParticipatingClients: uint64(6 + g.intn(3)),
			Timestamp:            now.Add(-time.Duration(globalRounds-i) * time.Hour),
			Duration:             uint64(120 + g.intn(60)),
			Status:               "completed",
		})
	}

	return rounds, nil
}

func (g *Generator) Clients(ctx context.Context) ([]training.Client, error) {
	if err := g.delay(ctx, clientsDelay); err != nil {
		return nil, err
	}

	now := g.clock.Now().UTC()
	clients := make([]training.Client, len(Roster))
	for i, h := range Roster {
		clients[i] = h.client(now)
	}

	return clients, nil
}

func (g *Generator) Logs(ctx context.Context) ([]training.LogEntry, error) {
	if err := g.delay(ctx, logsDelay); err != nil {
		return nil, err
	}

	now := g.clock.Now().UTC()
	logs := make([]training.LogEntry, len(systemLogs))
	for i, l := range systemLogs {
		logs[i] = training.LogEntry{
			ID:        uint64(i + 1),
			Timestamp: now.Add(-l.age),
			Severity:  l.severity,
			Message:   l.message,
			Source:    l.source,
		}
	}

	return logs, nil
}

func (g *Generator) Features(ctx context.Context) ([]prediction.Feature, error) {
	if err := g.delay(ctx, featuresDelay); err != nil {
		return nil, err
	}

	features := make([]prediction.Feature, prediction.NumFeatures)
	copy(features, prediction.Features[:])

	return features, nil
}

func (g *Generator) HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error) {
	if err := g.delay(ctx, dashboardDelay); err != nil {
		return training.HospitalDashboard{}, err
	}

	name := Roster[0].Name
	if h, ok := Lookup(hospitalID); ok {
		name = h.Name
	}

	return training.HospitalDashboard{
		HospitalID:            hospitalID,
		HospitalName:          name,
		ModelVersion:          ModelVersion + "-local",
		LastSync:              g.clock.Now().UTC().Add(-time.Hour),
		LastTrainingAccuracy:  0.8756,
		LastTrainingLoss:      0.2345,
		ModelStatus:           "ready",
		TotalPredictions:      1243,
		TotalTrainingSessions: 45,
	}, nil
}

func (g *Generator) LocalMetrics(ctx context.Context, _ string) (training.History, error) {
	if err := g.delay(ctx, localMetricsDelay); err != nil {
		return nil, err
	}

	return g.history(localFirstRound, localLen, 0.006, 0.32, 0.008), nil
}

// StartTraining always acknowledges and starts a synthetic run unless one is
// already in progress.
func (g *Generator) StartTraining(ctx context.Context, _ string) (training.StartAck, error) {
	if err := g.delay(ctx, startTrainingDelay); err != nil {
		return training.StartAck{}, err
	}

	now := g.clock.Now()
	g.mu.Lock()
	if g.runStart == nil || g.clock.Since(*g.runStart) >= time.Duration(g.cfg.Rounds)*g.cfg.RoundDuration {
		g.runStart = &now
	}
	g.mu.Unlock()

	return training.StartAck{
		TrainingID: fmt.Sprintf("train_%d", now.UnixMilli()),
		Message:    "Training started successfully",
		Status:     training.TrainingStr,
		Synthetic:  true,
	}, nil
}

// shapScale bounds the synthetic contribution of each feature.
var shapScale = []struct {
	feature string
	scale   float64
}{
	{"age", 0.4},
	{"sex", 0.3},
	{"chest_pain_type", 0.35},
	{"resting_bp", 0.25},
	{"cholesterol", 0.3},
	{"fasting_bs", 0.2},
	{"resting_ecg", 0.15},
	{"max_heart_rate", 0.28},
	{"exercise_angina", 0.32},
	{"oldpeak", 0.27},
	{"st_slope", 0.22},
}

func (g *Generator) shap(n int) []prediction.Importance {
	out := make([]prediction.Importance, 0, n)
	for _, s := range shapScale[:n] {
		out = append(out, prediction.Importance{Feature: s.feature, ShapValue: round4((g.float() - 0.5) * s.scale)})
	}

	return out
}

// Predict ignores the feature vector; the risk is uniformly random.
func (g *Generator) Predict(ctx context.Context, _ string, req prediction.Request) (prediction.Response, error) {
	if err := g.delay(ctx, predictDelay); err != nil {
		return prediction.Response{}, err
	}
	if err := req.Validate(); err != nil {
		return prediction.Response{}, err
	}

	p := round4(g.float())

	return prediction.Response{
		Prediction:        p,
		RiskLevel:         string(prediction.Classify(p * 100)),
		Confidence:        round4(math.Abs(p-0.5) * 2),
		FeatureImportance: g.shap(len(shapScale)),
		Note:              syntheticNote,
	}, nil
}

// PredictionHistory fabricates recent predictions, newest first.
func (g *Generator) PredictionHistory(ctx context.Context, hospitalID string) ([]prediction.Result, error) {
	if err := g.delay(ctx, historyDelay); err != nil {
		return nil, err
	}

	now := g.clock.Now().UTC()
	out := make([]prediction.Result, 0, predictionHistLen)
	for i := range predictionHistLen {
		shap := make(map[string]float64, 5)
		for _, s := range g.shap(5) {
			shap[s.Feature] = s.ShapValue
		}
		out = append(out, prediction.Result{
			ID:         fmt.Sprintf("pred_%d", 1000+i),
			HospitalID: hospitalID,
			PatientID:  fmt.Sprintf("P%d", 10000+i),
			RiskScore:  math.Round((20+g.float()*70)*100) / 100,
			ShapValues: shap,
			Synthetic:  true,
			Timestamp:  now.Add(-time.Duration(i) * 2 * time.Hour),
		})
	}

	return out, nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
