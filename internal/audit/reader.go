package audit

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Reader provides read access to the ClickHouse policy_decisions table.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// DecisionRow represents a single row from the policy_decisions table.
type DecisionRow struct {
	RequestID       string
	ClientID        string
	Timestamp       time.Time
	Role            string
	QueryPreview    string
	Outcome         string
	RefusalReason   string
	ConfidenceScore float64
	StageNames      []string
	StageAdmitted   []uint8
	DocumentCount   uint32
	UserID          string
	ClientTraceID   string
	LatencyMs       float32
}

// ListDecisionsParams holds filters and pagination for decision listing.
type ListDecisionsParams struct {
	ClientID  string
	Outcome   *string
	Role      *string
	UserID    *string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	PageSize  int
}

const decisionColumns = "request_id, client_id, timestamp, role, query_preview, " +
	"outcome, refusal_reason, confidence_score, " +
	"stage_names, stage_admitted, document_count, " +
	"user_id, client_trace_id, latency_ms"

func scanDecision(row interface{ Scan(...any) error }, d *DecisionRow) error {
	return row.Scan(
		&d.RequestID, &d.ClientID, &d.Timestamp, &d.Role, &d.QueryPreview,
		&d.Outcome, &d.RefusalReason, &d.ConfidenceScore,
		&d.StageNames, &d.StageAdmitted, &d.DocumentCount,
		&d.UserID, &d.ClientTraceID, &d.LatencyMs,
	)
}

// ListDecisions returns paginated, filtered decision events and the total count.
func (r *Reader) ListDecisions(ctx context.Context, params ListDecisionsParams) ([]DecisionRow, int, error) {
	conditions := []string{"client_id = @client_id"}
	args := []any{
		clickhouse.Named("client_id", params.ClientID),
	}

	if params.Outcome != nil {
		conditions = append(conditions, "outcome = @outcome")
		args = append(args, clickhouse.Named("outcome", *params.Outcome))
	}
	if params.Role != nil {
		conditions = append(conditions, "role = @role")
		args = append(args, clickhouse.Named("role", *params.Role))
	}
	if params.UserID != nil {
		conditions = append(conditions, "user_id = @user_id")
		args = append(args, clickhouse.Named("user_id", *params.UserID))
	}
	if params.StartTime != nil {
		conditions = append(conditions, "timestamp >= @start_time")
		args = append(args, clickhouse.Named("start_time", *params.StartTime))
	}
	if params.EndTime != nil {
		conditions = append(conditions, "timestamp <= @end_time")
		args = append(args, clickhouse.Named("end_time", *params.EndTime))
	}

	where := strings.Join(conditions, " AND ")
	offset := (params.Page - 1) * params.PageSize

	var total uint64
	countQuery := fmt.Sprintf("SELECT count() FROM policy_decisions WHERE %s", where)
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListDecisions count: %w", err)
	}

	dataQuery := fmt.Sprintf(
		"SELECT "+decisionColumns+" FROM policy_decisions WHERE %s "+
			"ORDER BY timestamp DESC "+
			"LIMIT @limit OFFSET @offset",
		where,
	)
	args = append(args,
		clickhouse.Named("limit", uint32(params.PageSize)),
		clickhouse.Named("offset", uint32(offset)),
	)

	rows, err := r.conn.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListDecisions query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decisions []DecisionRow
	for rows.Next() {
		var d DecisionRow
		if err := scanDecision(rows, &d); err != nil {
			return nil, 0, fmt.Errorf("ListDecisions scan: %w", err)
		}
		decisions = append(decisions, d)
	}

	return decisions, int(total), rows.Err()
}

// GetDecision returns a single decision by client ID and request ID, or nil if not found.
func (r *Reader) GetDecision(ctx context.Context, clientID, requestID string) (*DecisionRow, error) {
	row := r.conn.QueryRow(ctx,
		"SELECT "+decisionColumns+" FROM policy_decisions "+
			"WHERE client_id = @client_id AND request_id = @request_id",
		clickhouse.Named("client_id", clientID),
		clickhouse.Named("request_id", requestID),
	)

	var d DecisionRow
	if err := scanDecision(row, &d); err != nil {
		// ClickHouse doesn't return sql.ErrNoRows, so check for empty result
		return nil, fmt.Errorf("GetDecision: %w", err)
	}
	if d.RequestID == "" {
		return nil, nil
	}
	return &d, nil
}

// SummaryStats holds aggregate decision counts.
type SummaryStats struct {
	TotalQueries int `json:"total_queries"`
	Answers      int `json:"answers"`
	Refusals     int `json:"refusals"`
}

// ReasonCount holds a refusal reason and its count.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// TimeSeriesBucket holds an hourly count.
type TimeSeriesBucket struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// AnalyticsResult holds all analytics aggregations.
type AnalyticsResult struct {
	Summary          SummaryStats       `json:"summary"`
	RefusalsOverTime []TimeSeriesBucket `json:"refusals_over_time"`
	TopReasons       []ReasonCount      `json:"top_reasons"`
	AvgConfidence    float64            `json:"avg_confidence"`
}

// GetAnalytics returns aggregated decision analytics for a client over the
// given number of days.
func (r *Reader) GetAnalytics(ctx context.Context, clientID string, days int) (*AnalyticsResult, error) {
	rangeStart := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	baseArgs := []any{
		clickhouse.Named("client_id", clientID),
		clickhouse.Named("range_start", rangeStart),
	}

	result := &AnalyticsResult{}

	var total, answers, refusals uint64
	var avgConfidence float64
	err := r.conn.QueryRow(ctx,
		"SELECT count() as total, "+
			"countIf(outcome = 'ANSWER') as answers, "+
			"countIf(outcome = 'REFUSE') as refusals, "+
			"avgIf(confidence_score, outcome = 'ANSWER') as avg_confidence "+
			"FROM policy_decisions "+
			"WHERE client_id = @client_id AND timestamp >= @range_start",
		baseArgs...,
	).Scan(&total, &answers, &refusals, &avgConfidence)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics summary: %w", err)
	}
	result.Summary = SummaryStats{
		TotalQueries: int(total),
		Answers:      int(answers),
		Refusals:     int(refusals),
	}
	result.AvgConfidence = safeFloat(avgConfidence)

	rotRows, err := r.conn.Query(ctx,
		"SELECT toStartOfHour(timestamp) as hour, count() as count "+
			"FROM policy_decisions "+
			"WHERE client_id = @client_id AND outcome = 'REFUSE' "+
			"AND timestamp >= @range_start "+
			"GROUP BY hour ORDER BY hour",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics refusals_over_time: %w", err)
	}
	defer func() { _ = rotRows.Close() }()
	for rotRows.Next() {
		var hour time.Time
		var count uint64
		if err := rotRows.Scan(&hour, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics refusals_over_time scan: %w", err)
		}
		result.RefusalsOverTime = append(result.RefusalsOverTime, TimeSeriesBucket{
			Hour:  hour.Format(time.RFC3339),
			Count: int(count),
		})
	}

	reasonRows, err := r.conn.Query(ctx,
		"SELECT refusal_reason, count() as count "+
			"FROM policy_decisions "+
			"WHERE client_id = @client_id AND outcome = 'REFUSE' "+
			"AND refusal_reason != '' AND timestamp >= @range_start "+
			"GROUP BY refusal_reason ORDER BY count DESC LIMIT 10",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics top_reasons: %w", err)
	}
	defer func() { _ = reasonRows.Close() }()
	for reasonRows.Next() {
		var reason string
		var count uint64
		if err := reasonRows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics top_reasons scan: %w", err)
		}
		result.TopReasons = append(result.TopReasons, ReasonCount{
			Reason: reason, Count: int(count),
		})
	}

	// Ensure slices are non-nil for JSON serialization
	if result.RefusalsOverTime == nil {
		result.RefusalsOverTime = []TimeSeriesBucket{}
	}
	if result.TopReasons == nil {
		result.TopReasons = []ReasonCount{}
	}

	return result, nil
}

// safeFloat replaces NaN/Inf with 0.0.
// ClickHouse returns NaN for aggregates on empty result sets.
func safeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0.0
	}
	return f
}
