package core

import (
	"time"

	"bhpnet/config"
	"bhpnet/internal/capability"
	"bhpnet/internal/charset"
	"bhpnet/internal/metrics"
	"bhpnet/internal/retry"
	"bhpnet/internal/runner"
	"bhpnet/internal/transport"
	"bhpnet/tunnel"
	"bhpnet/util"
)

// Build constructs the Mode the configuration asks for.  initial is
// sent once after a connect-mode dial and ignored when listening.
func Build(cfg *config.Config, logger *util.Logger, initial []byte) (Mode, error) {
	if cfg.Listen {
		return buildListen(cfg, logger)
	}
	return buildConnect(cfg, logger, initial), nil
}

// ── mode builders ────────────────────────────────────────────────────

func buildListen(cfg *config.Config, logger *util.Logger) (Mode, error) {
	dec, err := charset.ForName(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	logger.Debug("command output charset: %s", dec.Name())

	return &ListenMode{
		Address:    cfg.Address(),
		Capability: buildCapability(cfg, runner.New(dec, logger)),
		Metrics:    metrics.New(),
		Logger:     logger,
	}, nil
}

func buildConnect(cfg *config.Config, logger *util.Logger, initial []byte) Mode {
	backoff := retry.DefaultBackoff(cfg.Retries)
	backoff.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("attempt %d failed: %v (retrying in %s)", attempt, err, wait.Truncate(time.Millisecond))
	}

	return &ConnectMode{
		Dialer:     buildDialer(cfg, logger),
		Capability: &capability.Prompt{Initial: initial},
		Address:    cfg.Address(),
		Backoff:    backoff,
		Logger:     logger,
	}
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   config.DefaultConnTimeout,
		}, logger)
	}
	return &transport.TCPDialer{}
}

// buildCapability selects the per-connection listen behaviour.
func buildCapability(cfg *config.Config, r runner.Runner) capability.Capability {
	switch cfg.Behavior() {
	case config.BehaviorExecute:
		return &capability.Execute{Runner: r, Command: cfg.Execute}
	case config.BehaviorUpload:
		return &capability.Upload{Path: cfg.Upload}
	case config.BehaviorShell:
		policy := capability.FailFast
		if cfg.Isolate {
			policy = capability.Isolate
		}
		return &capability.Shell{Runner: r, Policy: policy}
	}
	return capability.Hangup{}
}
