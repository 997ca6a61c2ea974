package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
)

// validConfigDoc carries every required aliased field plus an extra one, so
// round-trip tests can check that unknown fields survive verbatim.
const validConfigDoc = `{"Nome":"Desktop-01","MAC":"AA:BB:CC:DD:EE:01","type":"pc","Notificar":true,"Frequency":60,"iniciarSO":false,"status":{"cpu":true,"memory":true},"extra_field":"untouched"}`

func newTestConfigService(t *testing.T) (*ConfigService, *model.Machine) {
	t.Helper()
	machines, _ := newTestMachineService()
	machine, err := machines.ResolveOrCreate(context.Background(), "user-1", "AA:BB:CC:DD:EE:01", "Desktop-01", model.MachineTypePC)
	if err != nil {
		t.Fatalf("setup machine failed: %v", err)
	}
	return NewConfigService(machines, newMemConfigRepo(), testLogger()), machine
}

func TestConfigPutAndGetRoundTrip(t *testing.T) {
	svc, machine := newTestConfigService(t)

	stored, err := svc.Put(context.Background(), "user-1", json.RawMessage(validConfigDoc))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if stored.MachineID != machine.ID {
		t.Errorf("expected machine %q, got %q", machine.ID, stored.MachineID)
	}

	got, err := svc.Get(context.Background(), "user-1", machine.MACAddress)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// Byte-identical round trip: aliases and unknown fields untouched.
	if string(got.Payload) != validConfigDoc {
		t.Errorf("document altered in round trip:\n got %s\nwant %s", got.Payload, validConfigDoc)
	}
}

func TestConfigPutRequiredFields(t *testing.T) {
	svc, _ := newTestConfigService(t)

	required := []string{"Nome", "MAC", "type", "Notificar", "Frequency", "iniciarSO", "status"}
	for _, field := range required {
		t.Run(field, func(t *testing.T) {
			var doc map[string]any
			if err := json.Unmarshal([]byte(validConfigDoc), &doc); err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			delete(doc, field)
			payload, err := json.Marshal(doc)
			if err != nil {
				t.Fatalf("failed to re-marshal fixture: %v", err)
			}

			_, err = svc.Put(context.Background(), "user-1", payload)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("missing %q: expected ErrValidation, got %v", field, err)
			}
		})
	}
}

func TestConfigPutRejectsNonObjectDocuments(t *testing.T) {
	svc, _ := newTestConfigService(t)

	for _, payload := range []string{`"just a string"`, `[1,2,3]`, `42`, `not json`} {
		_, err := svc.Put(context.Background(), "user-1", json.RawMessage(payload))
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("payload %s: expected ErrValidation, got %v", payload, err)
		}
	}
}

func TestConfigPutGatesOwnership(t *testing.T) {
	svc, _ := newTestConfigService(t)

	_, err := svc.Put(context.Background(), "user-2", json.RawMessage(validConfigDoc))
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-owner, got %v", err)
	}
}

func TestConfigGetMissing(t *testing.T) {
	svc, machine := newTestConfigService(t)

	_, err := svc.Get(context.Background(), "user-1", machine.MACAddress)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound before any write, got %v", err)
	}

	_, err = svc.Get(context.Background(), "user-1", "FF:FF:FF:FF:FF:FF")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown MAC, got %v", err)
	}
}
