package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
)

func newTestMetricService(t *testing.T) (*MetricService, *memMetricRepo, *model.Machine) {
	t.Helper()
	machines, _ := newTestMachineService()
	machine, err := machines.ResolveOrCreate(context.Background(), "user-1", "AA:BB:CC:DD:EE:01", "Desktop-01", model.MachineTypePC)
	if err != nil {
		t.Fatalf("setup machine failed: %v", err)
	}
	repo := newMemMetricRepo()
	return NewMetricService(machines, repo, testLogger()), repo, machine
}

func TestAppendCorrelatesByNestedMAC(t *testing.T) {
	svc, _, machine := newTestMetricService(t)

	payload := json.RawMessage(`{"machine_info":{"mac":"AA:BB:CC:DD:EE:01"},"cpu":52.3}`)
	record, err := svc.Append(context.Background(), "user-1", payload)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if record.MachineID != machine.ID {
		t.Errorf("expected machine %q, got %q", machine.ID, record.MachineID)
	}
	if record.ReferenceID == "" {
		t.Error("expected a reference id")
	}
}

func TestAppendFallsBackToTopLevelMAC(t *testing.T) {
	svc, _, machine := newTestMetricService(t)

	payload := json.RawMessage(`{"mac_address":"AA:BB:CC:DD:EE:01","cpu":52.3}`)
	record, err := svc.Append(context.Background(), "user-1", payload)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if record.MachineID != machine.ID {
		t.Errorf("expected machine %q, got %q", machine.ID, record.MachineID)
	}
}

func TestAppendRejectsPayloadWithoutMAC(t *testing.T) {
	svc, _, _ := newTestMetricService(t)

	_, err := svc.Append(context.Background(), "user-1", json.RawMessage(`{"cpu":52.3}`))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected ErrValidation for missing MAC, got %v", err)
	}

	_, err = svc.Append(context.Background(), "user-1", json.RawMessage(`[1,2,3]`))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected ErrValidation for non-object payload, got %v", err)
	}
}

func TestAppendGatesOwnership(t *testing.T) {
	svc, _, _ := newTestMetricService(t)

	payload := json.RawMessage(`{"mac_address":"AA:BB:CC:DD:EE:01","cpu":52.3}`)
	_, err := svc.Append(context.Background(), "user-2", payload)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-owner, got %v", err)
	}
}

func TestAppendUsesPayloadTimestamp(t *testing.T) {
	svc, _, _ := newTestMetricService(t)

	payload := json.RawMessage(`{"mac_address":"AA:BB:CC:DD:EE:01","timestamp":"2024-05-20T10:33:00Z","cpu":52.3}`)
	record, err := svc.Append(context.Background(), "user-1", payload)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	want := time.Date(2024, 5, 20, 10, 33, 0, 0, time.UTC)
	if !record.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, record.Timestamp)
	}
}

func TestAppendStampsNowOnBadTimestamp(t *testing.T) {
	svc, _, _ := newTestMetricService(t)

	before := time.Now().UTC()
	payload := json.RawMessage(`{"mac_address":"AA:BB:CC:DD:EE:01","timestamp":"yesterday-ish","cpu":52.3}`)
	record, err := svc.Append(context.Background(), "user-1", payload)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	after := time.Now().UTC()

	if record.Timestamp.Before(before) || record.Timestamp.After(after) {
		t.Errorf("expected current-time fallback, got %v", record.Timestamp)
	}
}

func TestQueryClampsLimit(t *testing.T) {
	svc, repo, machine := newTestMetricService(t)

	cases := []struct {
		name      string
		requested int
		want      int
	}{
		{"zero means default", 0, DefaultMetricLimit},
		{"negative means default", -5, DefaultMetricLimit},
		{"in range passes through", 250, 250},
		{"over ceiling is clamped", 5000, MaxMetricLimit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Query(context.Background(), "user-1", machine.MACAddress, nil, nil, tc.requested); err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if repo.lastQueryOpts.Limit != tc.want {
				t.Errorf("limit %d: repository saw %d, want %d", tc.requested, repo.lastQueryOpts.Limit, tc.want)
			}
		})
	}
}

func TestQueryGatesOwnership(t *testing.T) {
	svc, _, machine := newTestMetricService(t)

	_, err := svc.Query(context.Background(), "user-2", machine.MACAddress, nil, nil, 0)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-owner, got %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			name:  "trailing Z normalized to UTC offset",
			input: "2024-05-20T10:33:00Z",
			want:  time.Date(2024, 5, 20, 10, 33, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "explicit offset converted to UTC",
			input: "2024-05-20T07:33:00-03:00",
			want:  time.Date(2024, 5, 20, 10, 33, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "naive timestamp treated as UTC",
			input: "2024-05-20T10:33:00",
			want:  time.Date(2024, 5, 20, 10, 33, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "fractional seconds preserved",
			input: "2024-05-20T10:33:00.250000Z",
			want:  time.Date(2024, 5, 20, 10, 33, 0, 250000000, time.UTC),
			ok:    true,
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  2024-05-20T10:33:00Z  ",
			want:  time.Date(2024, 5, 20, 10, 33, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "garbage rejected",
			input: "not-a-timestamp",
			ok:    false,
		},
		{
			name:  "empty rejected",
			input: "",
			ok:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok: got %v, want %v", ok, tc.ok)
			}
			if tc.ok && !got.Equal(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
			if tc.ok && got.Location() != time.UTC {
				t.Errorf("expected UTC location, got %v", got.Location())
			}
		})
	}
}
