package authz

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/sirupsen/logrus"
)

// Service enforces casbin decisions according to the configured rollout mode.
type Service struct {
	cfg          Config
	enforcer     *casbin.Enforcer
	logger       *logrus.Entry
	flagProvider FlagProvider
	mu           sync.RWMutex
}

func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()

	var logger *logrus.Entry
	if cfg.Logger != nil {
		logger = cfg.Logger.WithField("component", "authz")
	} else {
		logger = logrus.WithField("component", "authz")
	}

	enf, err := casbin.NewEnforcer(cfg.ModelPath, fileadapter.NewAdapter(cfg.PolicyPath))
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if err := enf.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz: failed to load policies: %w", err)
	}

	provider := cfg.FlagProvider
	if provider == nil {
		provider = NewFileFlagProvider(cfg.FlagPath, cfg.Flags)
	}

	return &Service{
		cfg:          cfg,
		enforcer:     enf,
		logger:       logger,
		flagProvider: provider,
	}, nil
}

// ModeFor reports the enforcement mode currently in effect for object.
func (s *Service) ModeFor(object string) Mode {
	return s.flagProvider.Flags().ModeFor(object)
}

// Authorize returns a forbidden error when the request is denied in enforce mode.
// Shadow mode only logs the denial.
func (s *Service) Authorize(ctx context.Context, req Request) error {
	mode := s.ModeFor(req.Object)
	if mode == ModeDisabled {
		recordDecision(mode, "skipped")
		return nil
	}

	allowed, err := s.Check(ctx, req)
	if err != nil {
		return err
	}
	if allowed {
		recordDecision(mode, "allowed")
		return nil
	}

	recordDecision(mode, "denied")
	entry := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"subject": req.Subject,
		"domain":  req.Domain,
		"object":  req.Object,
		"action":  req.Action,
		"mode":    mode,
	})
	if mode == ModeEnforce {
		entry.Warn("authz denied request")
		return forbiddenError(req)
	}
	entry.Warn("authz shadow deny")
	return nil
}

// Check evaluates a request without returning an authorization error.
func (s *Service) Check(ctx context.Context, req Request) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.enforcer.Enforce(req.Subject, req.Domain, req.Object, req.Action, req.Attributes)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return res, nil
}

// ReloadPolicy reloads policy data from disk.
func (s *Service) ReloadPolicy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("authz: reload policy failed: %w", err)
	}
	s.logger.WithContext(ctx).Info("authz policy reloaded")
	return nil
}

var (
	defaultMu      sync.Mutex
	defaultService *Service
)

// Use returns the process-wide Service configured from the environment.
func Use() *Service {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultService == nil {
		svc, err := NewService(DefaultConfig())
		if err != nil {
			panic(err)
		}
		defaultService = svc
	}
	return defaultService
}

// Reset drops the cached singleton so the next Use call rereads configuration.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultService = nil
}
