package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/prediction"
)

type predictionRepo struct {
	db *Database
}

func NewPredictionRepository(db *Database) PredictionRepository {
	return &predictionRepo{db: db}
}

type dbPrediction struct {
	ID         string         `db:"id"`
	HospitalID string         `db:"hospital_id"`
	PatientID  string         `db:"patient_id"`
	RiskScore  float64        `db:"risk_score"`
	Confidence float64        `db:"confidence"`
	ShapValues []byte         `db:"shap_values"`
	Note       sql.NullString `db:"note"`
	Synthetic  bool           `db:"synthetic"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r *predictionRepo) Save(ctx context.Context, p prediction.Result) error {
	if p.ID == "" {
		return pkgerrors.ErrEmptyKey
	}

	shap, err := json.Marshal(p.ShapValues)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	query := `INSERT INTO predictions (id, hospital_id, patient_id, risk_score, confidence, shap_values, note, synthetic, created_at)
		VALUES (:id, :hospital_id, :patient_id, :risk_score, :confidence, :shap_values, :note, :synthetic, :created_at)`

	row := dbPrediction{
		ID:         p.ID,
		HospitalID: p.HospitalID,
		PatientID:  p.PatientID,
		RiskScore:  p.RiskScore,
		Confidence: p.Confidence,
		ShapValues: shap,
		Note:       sql.NullString{String: p.Note, Valid: p.Note != ""},
		Synthetic:  p.Synthetic,
		CreatedAt:  p.Timestamp.UTC(),
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *predictionRepo) Retrieve(ctx context.Context, id string) (prediction.Result, error) {
	query := `SELECT id, hospital_id, patient_id, risk_score, confidence, shap_values, note, synthetic, created_at
		FROM predictions WHERE id = ?`

	var row dbPrediction
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return prediction.Result{}, pkgerrors.ErrNotFound
		}

		return prediction.Result{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toResult(row)
}

func (r *predictionRepo) List(ctx context.Context, hospitalID string, offset, limit uint64) (prediction.Page, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM predictions WHERE hospital_id = ?`, hospitalID); err != nil {
		return prediction.Page{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT id, hospital_id, patient_id, risk_score, confidence, shap_values, note, synthetic, created_at
		FROM predictions WHERE hospital_id = ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?`

	var rows []dbPrediction
	if err := r.db.SelectContext(ctx, &rows, query, hospitalID, limit, offset); err != nil {
		return prediction.Page{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	results := make([]prediction.Result, 0, len(rows))
	for _, row := range rows {
		res, err := toResult(row)
		if err != nil {
			return prediction.Page{}, err
		}
		results = append(results, res)
	}

	return prediction.Page{
		Offset:      offset,
		Limit:       limit,
		Total:       total,
		Predictions: results,
	}, nil
}

func toResult(row dbPrediction) (prediction.Result, error) {
	var shap map[string]float64
	if err := json.Unmarshal(row.ShapValues, &shap); err != nil {
		return prediction.Result{}, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	return prediction.Result{
		ID:         row.ID,
		HospitalID: row.HospitalID,
		PatientID:  row.PatientID,
		RiskScore:  row.RiskScore,
		Confidence: row.Confidence,
		ShapValues: shap,
		Note:       row.Note.String,
		Synthetic:  row.Synthetic,
		Timestamp:  row.CreatedAt.UTC(),
	}, nil
}
