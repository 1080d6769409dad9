package workers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/APTrust/integrity-services/api"
	"github.com/APTrust/integrity-services/baseline"
	"github.com/APTrust/integrity-services/constants"
	"github.com/APTrust/integrity-services/fixity"
	"github.com/APTrust/integrity-services/models/common"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/monitor"
	"github.com/APTrust/integrity-services/response"
	"github.com/APTrust/integrity-services/source"
	"github.com/APTrust/integrity-services/util"
)

// IntegrityMonitor wires a supervisor to the sources, baseline and
// responders described by the config.
type IntegrityMonitor struct {
	Context    *common.Context
	Artifacts  []integrity.Artifact
	Source     source.Source
	Store      *baseline.Store
	Supervisor *monitor.Supervisor

	// Hooks are always in the response chain. Set Defend and
	// Lockdown before Run to plug in platform remediation.
	Hooks *response.Hooks

	// History is nil unless REDIS_URL is set.
	History *response.HistoryRecorder

	// Watcher is nil unless WATCH_ARTIFACTS is on and artifacts are
	// local files.
	Watcher *source.Watcher

	listener net.Listener
}

func NewIntegrityMonitor(context *common.Context) (*IntegrityMonitor, error) {
	config := context.Config
	logger := context.Logger
	artifacts, err := LoadArtifacts(config)
	if err != nil {
		return nil, err
	}
	src, err := NewSource(context)
	if err != nil {
		return nil, err
	}
	loader, err := NewBaselineLoader(context)
	if err != nil {
		return nil, err
	}
	m := &IntegrityMonitor{
		Context:   context,
		Artifacts: artifacts,
		Source:    src,
		Store:     baseline.NewStore(loader, artifacts),
		Hooks:     &response.Hooks{},
	}

	responders := response.Chain{response.NewLogResponder(logger)}
	if context.NSQClient != nil {
		responders = append(responders, response.NewAlertPublisher(context.NSQClient, config.AlertTopic, logger))
	}
	if context.RedisClient != nil {
		m.History = response.NewHistoryRecorder(context.RedisClient, config.HistoryLimit, logger)
		responders = append(responders, m.History)
	}
	responders = append(responders, m.Hooks)

	scanner := monitor.NewScanner(src, fixity.NewSha256Engine(), monitor.NewClassifier(artifacts),
		config.StrictBaseline, logger)
	m.Supervisor = monitor.NewSupervisor(monitor.NewSettings(config), artifacts, m.Store,
		scanner, monitor.NewDispatcher(responders), logger)

	if config.WatchArtifacts {
		fileSource, ok := src.(*source.FileSource)
		if !ok {
			logger.Warningf("WATCH_ARTIFACTS works only with local files. Ignoring it for %s.", src.Name())
		} else {
			m.Watcher, err = source.NewWatcher(fileSource, integrity.Identifiers(artifacts), logger)
			if err != nil {
				return nil, err
			}
			m.Supervisor.Wake = m.Watcher.Events()
		}
	}
	return m, nil
}

// Run starts monitoring and blocks until ctx is done, then shuts the
// supervisor down. It returns an error only if monitoring could not
// start.
func (m *IntegrityMonitor) Run(ctx context.Context) error {
	logger := m.Context.Logger
	logger.Info("Starting with config settings:")
	logger.Info(m.Context.Config.ToJSON())

	if m.Context.Config.PidFile != "" {
		pidFile := util.NewPidFile(m.Context.Config.PidFile)
		if err := pidFile.Acquire(); err != nil {
			return err
		}
		defer pidFile.Release()
	}
	if m.Watcher != nil {
		go m.Watcher.Run(ctx)
		defer m.Watcher.Close()
	}
	if m.History != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go m.History.WatchPosture(watchCtx, m.Supervisor.Posture(), done)
		defer func() {
			cancel()
			<-done
			if err := m.History.Client.PostureSave(m.Supervisor.Posture().Get()); err != nil {
				logger.Warningf("Cannot save final posture: %v", err)
			}
		}()
	}
	if m.Context.Config.HTTPAddr != "" {
		server, err := m.serveHTTP(m.Context.Config.HTTPAddr)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	if err := m.Supervisor.Initialize(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	m.Supervisor.Shutdown()
	return nil
}

// RunOnce loads the baseline and runs a single sweep.
func (m *IntegrityMonitor) RunOnce(ctx context.Context) (*integrity.SweepResult, error) {
	if err := m.Store.Load(ctx); err != nil {
		return nil, err
	}
	return m.Supervisor.RunSweep(ctx)
}

// Handler returns the HTTP status API for this monitor.
func (m *IntegrityMonitor) Handler() http.Handler {
	handlers := &api.Handlers{
		Posture: m.Supervisor.Posture(),
		Logger:  m.Context.Logger,
	}
	if m.History != nil {
		handlers.History = m.History
	}
	return api.NewRouter(handlers)
}

// HTTPAddr returns the address the status API is listening on, or
// an empty string if it isn't running.
func (m *IntegrityMonitor) HTTPAddr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

func (m *IntegrityMonitor) serveHTTP(addr string) (*http.Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("Cannot listen on %s: %v", addr, err)
	}
	m.listener = listener
	server := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.Context.Logger.Errorf("Status API stopped: %v", err)
		}
	}()
	m.Context.Logger.Infof("Status API listening on %s", listener.Addr())
	return server, nil
}

// LoadArtifacts returns the registry in ARTIFACTS_FILE, or the
// built-in artifact set if none is configured.
func LoadArtifacts(config *common.Config) ([]integrity.Artifact, error) {
	if config.ArtifactsFile == "" {
		return integrity.DefaultArtifacts, nil
	}
	return integrity.LoadRegistry(config.ArtifactsFile)
}

// NewSource returns the artifact source named by ARTIFACT_SOURCE.
func NewSource(context *common.Context) (source.Source, error) {
	config := context.Config
	switch config.ArtifactSource {
	case constants.ArtifactSourceFile:
		return source.NewFileSource(config.ArtifactRoot), nil
	case constants.ArtifactSourceS3:
		if context.S3Client == nil {
			return nil, fmt.Errorf("ARTIFACT_SOURCE is s3 but there is no S3 client")
		}
		return source.NewS3Source(context.S3Client, config.S3Bucket, config.S3Prefix), nil
	}
	return nil, fmt.Errorf("Unknown ARTIFACT_SOURCE '%s'", config.ArtifactSource)
}

// NewBaselineLoader returns the trusted loader named by
// BASELINE_SOURCE.
func NewBaselineLoader(context *common.Context) (baseline.Loader, error) {
	config := context.Config
	switch config.BaselineSource {
	case constants.BaselineSourceManifest:
		return baseline.NewManifestLoader(config.BaselineManifest, config.BaselineManifestSha256, context.Logger), nil
	case constants.BaselineSourceRedis:
		if context.RedisClient == nil {
			return nil, fmt.Errorf("BASELINE_SOURCE is redis but there is no Redis client")
		}
		return baseline.NewRedisLoader(context.RedisClient, config.RedisBaselineKey), nil
	}
	return nil, fmt.Errorf("Unknown BASELINE_SOURCE '%s'", config.BaselineSource)
}
