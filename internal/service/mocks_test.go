package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// In-memory repositories mirroring the SQLite semantics the services rely
// on: unique constraints surface as already-exists, misses as not-found,
// and every return is a copy so tests can't mutate stored state by
// accident.

type memUserRepo struct {
	users map[string]*model.User // keyed by email
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if _, ok := r.users[user.Email]; ok {
		return apperror.AlreadyExists("email", user.Email)
	}
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.users[user.Email] = &stored
	return nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	copied := *u
	return &copied, nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

type memMachineRepo struct {
	machines map[string]*model.Machine // keyed by MAC

	// createHook, when set, runs before each CreateMachine and can inject
	// failures (e.g. to simulate losing a concurrent-registration race).
	createHook func(*model.Machine) error
}

func newMemMachineRepo() *memMachineRepo {
	return &memMachineRepo{machines: make(map[string]*model.Machine)}
}

func (r *memMachineRepo) CreateMachine(_ context.Context, machine *model.Machine) error {
	if r.createHook != nil {
		if err := r.createHook(machine); err != nil {
			return err
		}
	}
	if _, ok := r.machines[machine.MACAddress]; ok {
		return apperror.AlreadyExists("machine", machine.MACAddress)
	}
	now := time.Now().UTC()
	machine.ID = xid.New().String()
	machine.CreatedAt = now
	machine.UpdatedAt = now
	stored := *machine
	r.machines[machine.MACAddress] = &stored
	return nil
}

func (r *memMachineRepo) GetMachineByMAC(_ context.Context, mac string) (*model.Machine, error) {
	m, ok := r.machines[mac]
	if !ok {
		return nil, apperror.NotFound("machine", mac)
	}
	copied := *m
	return &copied, nil
}

func (r *memMachineRepo) GetMachineByMACAndOwner(_ context.Context, mac, ownerID string) (*model.Machine, error) {
	m, ok := r.machines[mac]
	if !ok || m.OwnerID != ownerID {
		return nil, apperror.NotFound("machine", mac)
	}
	copied := *m
	return &copied, nil
}

func (r *memMachineRepo) UpdateMachineNameType(_ context.Context, id, name, machineType string) error {
	for _, m := range r.machines {
		if m.ID == id {
			m.Name = name
			m.Type = machineType
			m.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return apperror.NotFound("machine", id)
}

func (r *memMachineRepo) ListMachinesByOwner(_ context.Context, ownerID string) ([]model.Machine, error) {
	var machines []model.Machine
	for _, m := range r.machines {
		if m.OwnerID == ownerID {
			machines = append(machines, *m)
		}
	}
	return machines, nil
}

type memConfigRepo struct {
	configs map[string]*model.StoredConfig // keyed by machine ID
}

func newMemConfigRepo() *memConfigRepo {
	return &memConfigRepo{configs: make(map[string]*model.StoredConfig)}
}

func (r *memConfigRepo) UpsertConfig(_ context.Context, machineID string, payload json.RawMessage) (*model.StoredConfig, error) {
	now := time.Now().UTC()
	existing, ok := r.configs[machineID]
	if !ok {
		existing = &model.StoredConfig{
			ID:        xid.New().String(),
			MachineID: machineID,
			CreatedAt: now,
		}
		r.configs[machineID] = existing
	}
	existing.Payload = append(json.RawMessage(nil), payload...)
	existing.UpdatedAt = now
	copied := *existing
	return &copied, nil
}

func (r *memConfigRepo) GetConfig(_ context.Context, machineID string) (*model.StoredConfig, error) {
	c, ok := r.configs[machineID]
	if !ok {
		return nil, apperror.NotFound("configuration", machineID)
	}
	copied := *c
	return &copied, nil
}

type memMetricRepo struct {
	records []model.MetricRecord

	// lastQueryOpts records what Query passed down, so tests can assert
	// on limit clamping without round-tripping through a real store.
	lastQueryOpts repository.MetricQueryOptions
}

func newMemMetricRepo() *memMetricRepo {
	return &memMetricRepo{}
}

func (r *memMetricRepo) AppendMetric(_ context.Context, record *model.MetricRecord) error {
	record.ID = xid.New().String()
	record.ReferenceID = strings.ReplaceAll(uuid.NewString(), "-", "")
	record.CreatedAt = time.Now().UTC()
	r.records = append(r.records, *record)
	return nil
}

func (r *memMetricRepo) QueryMetrics(_ context.Context, machineID string, opts repository.MetricQueryOptions) ([]model.MetricRecord, error) {
	r.lastQueryOpts = opts
	matched := []model.MetricRecord{}
	for _, rec := range r.records {
		if rec.MachineID != machineID {
			continue
		}
		if opts.Start != nil && rec.Timestamp.Before(*opts.Start) {
			continue
		}
		if opts.End != nil && rec.Timestamp.After(*opts.End) {
			continue
		}
		matched = append(matched, rec)
		if opts.Limit > 0 && len(matched) == opts.Limit {
			break
		}
	}
	return matched, nil
}

func (r *memMetricRepo) ListAllMetrics(_ context.Context, machineID string) ([]model.MetricRecord, error) {
	matched := []model.MetricRecord{}
	for _, rec := range r.records {
		if rec.MachineID == machineID {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}
