package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/0x6flab/namegenerator"
	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/fallback"
	"github.com/absmach/cvdash/pkg/fl"
	"github.com/absmach/cvdash/pkg/mqtt"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"k8s.io/utils/clock"
)

const (
	maxLogs     = 100
	maxRounds   = 10
	eventSource = "simulator"

	untrainedNote = "Model has not been trained yet; prediction uses initial weights"
)

// initialWeights of the scoring model, in feature order.
var initialWeights = [prediction.NumFeatures]float64{
	0.9, 0.5, 0.8, 0.6, 0.7, 0.3, 0.2, -0.9, 0.8, 1.0, 0.6, 0.9, 0.7,
}

const initialBias = -0.2

func initialModel() fl.Model {
	return fl.Model{Weights: initialWeights[:], Bias: initialBias}
}

type hospital struct {
	id       string
	name     string
	state    training.ClientState
	samples  uint64
	rounds   uint64
	offset   float64
	lastSeen time.Time
	preds    uint64
}

type run struct {
	id        string
	state     training.State
	startedAt time.Time
	endedAt   *time.Time
	completed uint64
	errMsg    string
	history   training.History
}

type simulator struct {
	cfg        Config
	clock      clock.PassiveClock
	publisher  mqtt.PubSub
	aggregator fl.Aggregator
	logger     *slog.Logger

	mu        sync.Mutex
	rng       *rand.Rand
	run       run
	model     fl.Model
	version   uint64
	roundSeq  uint64
	lastSync  time.Time
	table     []training.Round
	logs      []training.LogEntry
	logSeq    uint64
	hospitals []*hospital
}

// NewService builds a simulator with the fixed hospital roster plus
// cfg.ExtraHospitals generated ones. publisher may be nil.
func NewService(cfg Config, clk clock.PassiveClock, publisher mqtt.PubSub, logger *slog.Logger) Service {
	if cfg.Rounds == 0 {
		cfg.Rounds = 5
	}
	if cfg.RoundDuration <= 0 {
		cfg.RoundDuration = 3 * time.Second
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(clk.Now().UnixNano())
	}

	now := clk.Now().UTC()
	s := &simulator{
		cfg:        cfg,
		clock:      clk,
		publisher:  publisher,
		aggregator: fl.NewFedAvgAggregator(),
		logger:     logger,
		rng:        rand.New(rand.NewPCG(seed, seed>>1|1)),
		run:        run{state: training.Idle},
		model:      initialModel(),
		lastSync:   now,
	}

	for i, h := range fallback.Roster {
		s.hospitals = append(s.hospitals, &hospital{
			id:       h.ID,
			name:     h.Name,
			state:    onlineOrOffline(h.Status),
			samples:  h.TotalSamples,
			offset:   float64(i%4) * 0.004,
			lastSeen: now.Add(-h.Since),
		})
	}
	namegen := namegenerator.NewGenerator()
	for i := range cfg.ExtraHospitals {
		s.hospitals = append(s.hospitals, &hospital{
			id:       fmt.Sprintf("h%d", len(fallback.Roster)+i+1),
			name:     namegen.Generate() + " Hospital",
			state:    training.ClientOnline,
			samples:  uint64(1500 + s.rng.IntN(3000)),
			offset:   s.rng.Float64() * 0.01,
			lastSeen: now,
		})
	}
	s.log(now, training.SeverityInfo, "Federated server started", "server")

	return s
}

func onlineOrOffline(st training.ClientState) training.ClientState {
	if st == training.ClientOffline {
		return training.ClientOffline
	}

	return training.ClientOnline
}

// log appends an entry. The caller holds mu.
func (s *simulator) log(at time.Time, sev training.Severity, msg, source string) training.LogEntry {
	s.logSeq++
	e := training.LogEntry{
		ID:        s.logSeq,
		Timestamp: at,
		Severity:  sev,
		Message:   msg,
		Source:    source,
	}
	s.logs = append(s.logs, e)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}

	return e
}

type event struct {
	topic string
	msg   mqtt.Event
}

// advance completes every round that is due. The caller holds mu and
// publishes the returned events after unlocking.
func (s *simulator) advance() []event {
	if s.run.state != training.Training {
		return nil
	}

	var events []event
	due := min(uint64(s.clock.Since(s.run.startedAt)/s.cfg.RoundDuration), s.cfg.Rounds)
	for r := s.run.completed + 1; r <= due; r++ {
		at := s.run.startedAt.Add(time.Duration(r) * s.cfg.RoundDuration).UTC()

		var updates []fl.Update
		if r != s.cfg.FailAtRound {
			updates = s.localUpdates(r)
		}
		model, err := s.aggregator.Aggregate(updates)
		if err != nil {
			s.run.state = training.Error
			s.run.errMsg = fmt.Sprintf("aggregation failed in round %d: %s", r, err)
			s.run.endedAt = &at
			s.setTraining(training.ClientOnline)
			e := s.log(at, training.SeverityError, s.run.errMsg, "server")
			events = append(events, s.logEvent(at, e), s.statusEvent(at))

			return events
		}
		s.model = model

		m := training.RoundMetrics{
			Round:    r,
			Accuracy: round4(math.Min(math.Max(model.Accuracy, 0), 1)),
			Loss:     round4(math.Max(model.Loss, 0)),
		}
		s.run.history = append(s.run.history, m)
		s.run.completed = r
		s.roundSeq++

		participants := uint64(model.NumUpdates)
		for _, h := range s.hospitals {
			if h.state == training.ClientOffline {
				continue
			}
			h.rounds++
			h.lastSeen = at
		}
		s.table = append(s.table, training.Round{
			ID:                   s.roundSeq,
			RoundNumber:          s.roundSeq,
			Accuracy:             m.Accuracy,
			Loss:                 m.Loss,
			ParticipatingClients: participants,
			Timestamp:            at,
			Duration:             uint64(s.cfg.RoundDuration / time.Second),
			Status:               training.CompletedStr,
		})
		if len(s.table) > maxRounds {
			s.table = s.table[len(s.table)-maxRounds:]
		}

		e := s.log(at, training.SeverityInfo, fmt.Sprintf("Round %d/%d aggregated: accuracy %.4f", r, s.cfg.Rounds, m.Accuracy), "aggregator")
		events = append(events, event{
			topic: mqtt.TopicRounds,
			msg: mqtt.Event{
				Kind:      "round",
				Source:    eventSource,
				Timestamp: at,
				Payload: map[string]any{
					"trainingId": s.run.id,
					"round":      r,
					"accuracy":   m.Accuracy,
					"loss":       m.Loss,
				},
			},
		}, s.logEvent(at, e))
	}

	if s.run.completed == s.cfg.Rounds {
		at := s.run.startedAt.Add(time.Duration(s.cfg.Rounds) * s.cfg.RoundDuration).UTC()
		s.run.state = training.Completed
		s.run.endedAt = &at
		s.version++
		s.lastSync = at
		s.setTraining(training.ClientOnline)
		e := s.log(at, training.SeverityInfo, fmt.Sprintf("Training %s completed, global model %s", s.run.id, s.modelVersion()), "server")
		events = append(events, s.logEvent(at, e), s.statusEvent(at))
	}

	return events
}

// localUpdates trains every online hospital for one round. Local metrics
// approach a plateau with a little noise; local weights drift from the
// current global model.
func (s *simulator) localUpdates(r uint64) []fl.Update {
	x := float64(r)
	updates := make([]fl.Update, 0, len(s.hospitals))
	for _, h := range s.hospitals {
		if h.state == training.ClientOffline {
			continue
		}

		acc := 0.72 + 0.16*(1-math.Exp(-x/2)) - h.offset + s.rng.Float64()*0.01
		loss := 0.55*math.Exp(-x/3) + 0.15 + h.offset - s.rng.Float64()*0.01

		w := make([]float64, len(s.model.Weights))
		for i, v := range s.model.Weights {
			w[i] = v + s.rng.NormFloat64()*0.02
		}
		updates = append(updates, fl.Update{
			ClientID:   h.id,
			Round:      r,
			NumSamples: h.samples,
			Weights:    w,
			Bias:       s.model.Bias + s.rng.NormFloat64()*0.01,
			Accuracy:   math.Min(acc, 1),
			Loss:       math.Max(loss, 0),
		})
	}

	return updates
}

func (s *simulator) setTraining(st training.ClientState) {
	for _, h := range s.hospitals {
		if h.state != training.ClientOffline {
			h.state = st
		}
	}
}

func (s *simulator) logEvent(at time.Time, e training.LogEntry) event {
	return event{
		topic: mqtt.TopicLogs,
		msg:   mqtt.Event{Kind: "log", Source: eventSource, Timestamp: at, Payload: e},
	}
}

func (s *simulator) statusEvent(at time.Time) event {
	return event{
		topic: mqtt.TopicStatus,
		msg:   mqtt.Event{Kind: "status", Source: eventSource, Timestamp: at, Payload: s.status()},
	}
}

func (s *simulator) modelVersion() string {
	return fmt.Sprintf("v1.%d", s.version)
}

func (s *simulator) latest() training.RoundMetrics {
	if n := len(s.run.history); n > 0 {
		return s.run.history[n-1]
	}

	return training.RoundMetrics{Accuracy: 0.5, Loss: 0.69}
}

// status renders the run. The caller holds mu.
func (s *simulator) status() training.Status {
	st := training.Status{
		Status:       s.run.state,
		CurrentRound: s.run.completed,
		TotalRounds:  s.cfg.Rounds,
		Progress:     float64(s.run.completed) / float64(s.cfg.Rounds),
		EndTime:      s.run.endedAt,
		ErrorMessage: s.run.errMsg,
	}
	if s.run.state != training.Idle {
		start := s.run.startedAt.UTC()
		st.StartTime = &start
	}

	return st
}

// catchUp advances the run and publishes what happened meanwhile.
func (s *simulator) catchUp(ctx context.Context) {
	events := s.advance()
	if len(events) == 0 {
		return
	}

	s.mu.Unlock()
	defer s.mu.Lock()
	s.publish(ctx, events)
}

func (s *simulator) publish(ctx context.Context, events []event) {
	if s.publisher == nil {
		return
	}
	for _, e := range events {
		if err := s.publisher.Publish(ctx, e.topic, e.msg); err != nil {
			s.logger.Warn("Failed to publish simulator event",
				slog.String("topic", e.topic),
				slog.String("kind", e.msg.Kind),
				slog.Any("error", err),
			)
		}
	}
}

func (s *simulator) lookup(id string) (*hospital, error) {
	for _, h := range s.hospitals {
		if h.id == id {
			return h, nil
		}
	}

	return nil, fmt.Errorf("hospital %s: %w", id, pkgerrors.ErrNotFound)
}

func (s *simulator) GlobalStatus(ctx context.Context) (training.GlobalStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp(ctx)

	connected := uint64(0)
	for _, h := range s.hospitals {
		if h.state != training.ClientOffline {
			connected++
		}
	}
	status := "active"
	if s.run.state == training.Training {
		status = training.TrainingStr
	}
	m := s.latest()

	return training.GlobalStatus{
		Version:            s.modelVersion(),
		TotalRounds:        s.roundSeq,
		ConnectedHospitals: connected,
		Accuracy:           m.Accuracy,
		Loss:               m.Loss,
		LastUpdate:         s.lastSync,
		Status:             status,
	}, nil
}

func (s *simulator) TrainingStatus(ctx context.Context) (training.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp(ctx)

	return s.status(), nil
}

func (s *simulator) Metrics(ctx context.Context) (training.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp(ctx)

	h := make(training.History, len(s.run.history))
	copy(h, s.run.history)

	return training.Summarize(h), nil
}

// Rounds lists the recent federated rounds, newest first.
func (s *simulator) Rounds(ctx context.Context) ([]training.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp(ctx)

	rounds := make([]training.Round, 0, len(s.table))
	for i := len(s.table) - 1; i >= 0; i-- {
		rounds = append(rounds, s.table[i])
	}

	return rounds, nil
}

func (s *simulator) Clients(ctx context.Context) ([]training.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp(ctx)

	acc := s.latest().Accuracy
	clients := make([]training.Client, 0, len(s.hospitals))
	for _, h := range s.hospitals {
		clients = append(clients, training.Client{
			ID:                 h.id,
			Name:               h.name,
			Status:             h.state,
			LastUpdate:         h.lastSeen,
			Accuracy:           round4(math.Max(0, acc-h.offset)),
			TotalSamples:       h.samples,
			RoundsParticipated: h.rounds,
		})
	}

	return clients, nil
}

func (s *simulator) Logs(ctx context.Context) ([]training.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp(ctx)

	logs := make([]training.LogEntry, len(s.logs))
	copy(logs, s.logs)

	return training.SortLogs(logs), nil
}

func (s *simulator) Features(_ context.Context) ([]prediction.Feature, error) {
	features := make([]prediction.Feature, prediction.NumFeatures)
	copy(features, prediction.Features[:])

	return features, nil
}

func (s *simulator) HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp(ctx)

	h, err := s.lookup(hospitalID)
	if err != nil {
		return training.HospitalDashboard{}, err
	}

	status := "ready"
	switch {
	case s.run.state == training.Training:
		status = training.TrainingStr
	case s.version == 0:
		status = "untrained"
	}
	m := s.latest()

	return training.HospitalDashboard{
		HospitalID:            h.id,
		HospitalName:          h.name,
		ModelVersion:          s.modelVersion(),
		LastSync:              s.lastSync,
		LastTrainingAccuracy:  round4(math.Max(0, m.Accuracy-h.offset)),
		LastTrainingLoss:      round4(m.Loss + h.offset),
		ModelStatus:           status,
		TotalPredictions:      h.preds,
		TotalTrainingSessions: h.rounds,
	}, nil
}

func (s *simulator) LocalMetrics(ctx context.Context, hospitalID string) (training.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp(ctx)

	h, err := s.lookup(hospitalID)
	if err != nil {
		return nil, err
	}

	local := make(training.History, 0, len(s.run.history))
	for _, m := range s.run.history {
		local = append(local, training.RoundMetrics{
			Round:    m.Round,
			Accuracy: round4(math.Max(0, m.Accuracy-h.offset)),
			Loss:     round4(m.Loss + h.offset),
		})
	}

	return local, nil
}

// Predict scores the normalized vector with a fixed logistic model. The
// contributions are reported largest first.
func (s *simulator) Predict(ctx context.Context, hospitalID string, req prediction.Request) (prediction.Response, error) {
	if len(req.Features) != prediction.NumFeatures {
		return prediction.Response{}, pkgerrors.NewValidationError("features",
			fmt.Sprintf("Expected %d features, got %d", prediction.NumFeatures, len(req.Features)))
	}
	if err := req.Validate(); err != nil {
		return prediction.Response{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp(ctx)

	if hospitalID != "" {
		if h, err := s.lookup(hospitalID); err == nil {
			h.preds++
		}
	}

	// An untrained model is less decisive.
	scale := 1.0
	if s.version == 0 {
		scale = 0.5
	}

	z := s.model.Bias
	contributions := make([]prediction.Importance, 0, prediction.NumFeatures)
	for i, x := range req.Features {
		c := s.model.Weights[i] * (x - 0.5) * scale
		z += c
		contributions = append(contributions, prediction.Importance{
			Feature:   prediction.Features[i].Name,
			ShapValue: round4(c / 4),
		})
	}
	sort.SliceStable(contributions, func(i, j int) bool {
		return math.Abs(contributions[i].ShapValue) > math.Abs(contributions[j].ShapValue)
	})

	p := round4(1 / (1 + math.Exp(-z)))
	resp := prediction.Response{
		Prediction:        p,
		RiskLevel:         string(prediction.Classify(p * 100)),
		Confidence:        round4(math.Abs(p-0.5) * 2),
		FeatureImportance: contributions,
	}
	if s.version == 0 {
		resp.Note = untrainedNote
	}

	return resp, nil
}

func (s *simulator) StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error) {
	s.mu.Lock()
	s.catchUp(ctx)
	if s.run.state == training.Training {
		s.mu.Unlock()

		return training.StartAck{}, ErrTrainingInProgress
	}

	now := s.clock.Now().UTC()
	s.run = run{
		id:        fmt.Sprintf("train_%d", now.UnixMilli()),
		state:     training.Training,
		startedAt: now,
	}
	s.setTraining(training.ClientTraining)
	source := "server"
	if hospitalID != "" {
		source = hospitalID
	}
	e := s.log(now, training.SeverityInfo, fmt.Sprintf("Training %s started with %d rounds", s.run.id, s.cfg.Rounds), source)
	events := []event{s.logEvent(now, e), s.statusEvent(now)}
	ack := training.StartAck{
		TrainingID: s.run.id,
		Message:    "Training started successfully",
		Status:     training.TrainingStr,
	}
	s.mu.Unlock()

	s.publish(ctx, events)

	return ack, nil
}

func (s *simulator) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.catchUp(ctx)
	if s.run.state == training.Training {
		s.mu.Unlock()

		return ErrResetWhileTraining
	}

	now := s.clock.Now().UTC()
	s.run = run{state: training.Idle}
	s.model = initialModel()
	s.version = 0
	s.lastSync = now
	e := s.log(now, training.SeverityWarning, "Training state reset", "server")
	events := []event{s.logEvent(now, e), s.statusEvent(now)}
	s.mu.Unlock()

	s.publish(ctx, events)

	return nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
