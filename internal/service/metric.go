package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/repository"
)

// Metric query limits. The ceiling is enforced regardless of what the
// caller asks for — it bounds response size and memory, not just taste.
const (
	DefaultMetricLimit = 100
	MaxMetricLimit     = 1000
)

// MetricService ingests monitoring payloads and serves range queries.
//
// A payload is an arbitrary JSON object; the service only interprets two
// things: the MAC address that correlates it to a machine (taken from
// "machine_info.mac", falling back to "mac_address") and an optional
// "timestamp" string. Everything else is stored verbatim for the
// aggregation engine to pick over later.
type MetricService struct {
	machines *MachineService
	repo     repository.MetricRepository
	logger   *slog.Logger
}

// NewMetricService creates a MetricService.
func NewMetricService(machines *MachineService, repo repository.MetricRepository, logger *slog.Logger) *MetricService {
	return &MetricService{machines: machines, repo: repo, logger: logger}
}

// Append stores one monitoring submission for the machine named in the
// payload. Always an insert: resubmitting an identical payload creates a
// second record with its own reference id.
//
// A payload with no derivable MAC is a validation failure; an unparseable
// or missing timestamp is not — the record is stamped with current UTC
// time instead.
func (s *MetricService) Append(ctx context.Context, userID string, payload json.RawMessage) (*model.MetricRecord, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, apperror.ValidationFailed("data", "metrics payload must be a structured document")
	}

	mac := macFromPayload(doc)
	if mac == "" {
		return nil, apperror.ValidationFailed("mac_address", "MAC address missing in payload")
	}

	machine, err := s.machines.EnsureOwnership(ctx, userID, mac)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().UTC()
	if raw, ok := doc["timestamp"].(string); ok {
		if parsed, ok := ParseTimestamp(raw); ok {
			timestamp = parsed
		}
	}

	record := &model.MetricRecord{
		MachineID: machine.ID,
		Timestamp: timestamp,
		Payload:   payload,
	}
	if err := s.repo.AppendMetric(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Debug("stored monitoring data",
		slog.String("mac", machine.MACAddress),
		slog.Time("timestamp", record.Timestamp),
		slog.String("reference_id", record.ReferenceID),
	)
	return record, nil
}

// Query returns an owned machine's records newest-first, optionally
// bounded by the inclusive [start, end] window. The caller's limit is
// clamped to [1, MaxMetricLimit]; zero or negative means the default.
func (s *MetricService) Query(ctx context.Context, userID, macAddress string, start, end *time.Time, limit int) ([]model.MetricRecord, error) {
	machine, err := s.machines.EnsureOwnership(ctx, userID, macAddress)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultMetricLimit
	}
	if limit > MaxMetricLimit {
		limit = MaxMetricLimit
	}

	return s.repo.QueryMetrics(ctx, machine.ID, repository.MetricQueryOptions{
		Start: start,
		End:   end,
		Limit: limit,
	})
}

// macFromPayload derives the machine correlation key from a monitoring
// document: machine_info.mac wins, mac_address is the fallback.
func macFromPayload(doc map[string]any) string {
	if info, ok := doc["machine_info"].(map[string]any); ok {
		if mac, ok := info["mac"].(string); ok && mac != "" {
			return mac
		}
	}
	mac, _ := doc["mac_address"].(string)
	return mac
}

// ParseTimestamp parses an ISO-8601 timestamp string.
//
// A trailing literal "Z" is normalized to an explicit "+00:00" offset
// before parsing, so "2024-05-20T10:33:00Z" stores as UTC+00:00 exactly.
// Offset-less timestamps are accepted and treated as UTC. The second
// return value is false when the string is unparseable; the caller decides
// what to do about that (Append stamps current time).
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}

	// RFC 3339 first (offset present, optional fraction), then the two
	// naive layouts, treated as UTC.
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
