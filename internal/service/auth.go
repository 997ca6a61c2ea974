// Package service contains the business logic layer: validation, ownership
// rules and orchestration. Handlers stay HTTP-only, repositories stay
// SQL-only, and everything in between lives here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/auth"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/repository"
)

// AuthService handles registration and login.
//
// Login does double duty: it authenticates the user AND resolves the
// machine the agent is running on, because the agent sends its MAC address
// and OS descriptor with every login. The issued token is bound to that
// machine.
type AuthService struct {
	users     repository.UserRepository
	machines  *MachineService
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	machines *MachineService,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		machines:  machines,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// LoginResult bundles what the login endpoint returns to the agent: the
// bearer token and the machine type the server derived, which the agent
// uses to pick its collection profile.
type LoginResult struct {
	Token       string
	MachineType string
}

// Register creates a new user account.
// A duplicate email surfaces as apperror.ErrAlreadyExists, whether it was
// found here or raced in concurrently (the repository translates the
// constraint violation).
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("registered new user", slog.String("email", user.Email))
	return user, nil
}

// Login verifies credentials, resolves (or auto-registers) the machine the
// agent reports, and issues a session token bound to it.
//
// Credential failures are deliberately uniform: unknown email and wrong
// password produce the same unauthorized error, so the endpoint cannot be
// used to enumerate accounts. An ownership conflict on the MAC is NOT
// hidden — the login fails loudly rather than silently reassigning or
// sharing the machine.
func (s *AuthService) Login(ctx context.Context, email, password, macAddress, username, osDescriptor string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	machine, err := s.machines.ResolveOrCreate(ctx, user.ID, macAddress, username, MachineTypeFromOS(osDescriptor))
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.Email, user.ID, machine.MACAddress, machine.Type)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token: %w", err)
	}

	s.logger.Info("user authenticated machine",
		slog.String("email", user.Email),
		slog.String("mac", machine.MACAddress),
		slog.String("type", machine.Type),
	)

	return &LoginResult{Token: token, MachineType: machine.Type}, nil
}

// SeedInitialAdmin creates the bootstrap account from configuration if it
// does not already exist. Called once at startup; a no-op when the email
// is empty or the account is already there.
func (s *AuthService) SeedInitialAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	if _, err := s.Register(ctx, email, password, "Administrator"); err != nil {
		// A concurrent replica may have seeded it between our check and
		// the insert; that is fine.
		if errors.Is(err, apperror.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	s.logger.Info("seeded initial admin user", slog.String("email", email))
	return nil
}

// MachineTypeFromOS classifies the agent's free-text OS descriptor:
// "server" anywhere in it (case-insensitive) means a server, anything else
// is a pc. This rule is part of the observable contract with the agent.
func MachineTypeFromOS(osDescriptor string) string {
	if strings.Contains(strings.ToLower(osDescriptor), "server") {
		return model.MachineTypeServer
	}
	return model.MachineTypePC
}
