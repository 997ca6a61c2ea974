package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/repository"
)

// nestedFallbackKeys is the probe order for nested metric values: when a
// requested key maps to an object instead of a number, the first of these
// fields that holds a number wins and the rest are ignored for that
// record. The order is part of the contract — {"percent": 10, "usage": 20}
// contributes 20.
var nestedFallbackKeys = [...]string{"usage", "percent", "value"}

// DefaultAggregateKeys is the key set used when the caller requests none.
func DefaultAggregateKeys() []string {
	return []string{"cpu", "memory", "disk"}
}

// AggregateService computes per-key min/max/average summaries over a
// machine's stored metrics.
//
// The scan is O(records × keys) over every record the machine has, with no
// time bound — acceptable for agent-scale data volumes. Pushing the
// reduction into SQL would hide the scalar-vs-nested fallback rule inside
// a query; keeping it here keeps the rule in one readable place. Revisit
// if fleets grow past what a single scan tolerates.
type AggregateService struct {
	machines *MachineService
	repo     repository.MetricRepository
	logger   *slog.Logger
}

// NewAggregateService creates an AggregateService.
func NewAggregateService(machines *MachineService, repo repository.MetricRepository, logger *slog.Logger) *AggregateService {
	return &AggregateService{machines: machines, repo: repo, logger: logger}
}

// Aggregate returns one summary per requested key, in the caller's order.
//
// Per key, every stored record is inspected:
//   - a numeric scalar contributes directly
//   - a nested object contributes its first numeric field in
//     usage → percent → value order
//   - anything else (missing, string, bool, array) contributes nothing —
//     not a zero, not an error
//
// A key no record contributed to reports nil minimum/maximum/average: a
// legitimate sparse-data outcome, distinct from zero.
func (s *AggregateService) Aggregate(ctx context.Context, userID, macAddress string, keys []string) ([]model.Aggregate, error) {
	machine, err := s.machines.EnsureOwnership(ctx, userID, macAddress)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListAllMetrics(ctx, machine.ID)
	if err != nil {
		return nil, err
	}

	// Decode each payload once, not once per key.
	docs := make([]map[string]any, 0, len(records))
	for _, record := range records {
		var doc map[string]any
		if err := json.Unmarshal(record.Payload, &doc); err != nil {
			// A stored payload is always the JSON we accepted at ingest;
			// skip rather than fail the whole aggregation if one is bad.
			s.logger.Warn("skipping undecodable metric payload",
				slog.String("reference_id", record.ReferenceID))
			continue
		}
		docs = append(docs, doc)
	}

	aggregates := make([]model.Aggregate, 0, len(keys))
	for _, key := range keys {
		var values []float64
		for _, doc := range docs {
			if v, ok := numericForKey(doc, key); ok {
				values = append(values, v)
			}
		}
		aggregates = append(aggregates, summarize(key, values))
	}

	return aggregates, nil
}

// numericForKey extracts the value a document contributes for a key, if
// any. JSON numbers decode to float64, so that is the only numeric case.
func numericForKey(doc map[string]any, key string) (float64, bool) {
	switch v := doc[key].(type) {
	case float64:
		return v, true
	case map[string]any:
		for _, candidate := range nestedFallbackKeys {
			if n, ok := v[candidate].(float64); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// summarize reduces a value set to its min/max/arithmetic mean.
func summarize(key string, values []float64) model.Aggregate {
	if len(values) == 0 {
		return model.Aggregate{Metric: key}
	}

	minimum, maximum, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < minimum {
			minimum = v
		}
		if v > maximum {
			maximum = v
		}
		sum += v
	}
	average := sum / float64(len(values))

	return model.Aggregate{
		Metric:  key,
		Minimum: &minimum,
		Maximum: &maximum,
		Average: &average,
	}
}
