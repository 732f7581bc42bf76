package main

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"loan-feature-engine/internal/batch"
	"loan-feature-engine/internal/config"
	"loan-feature-engine/internal/event"
	"loan-feature-engine/internal/feature"
	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/infrastructure/logging"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleFeatures struct{}

func (idleFeatures) Generate(context.Context, feature.Entity) (*frame.Frame, error) {
	return frame.New(), nil
}

func (idleFeatures) Publish(context.Context, feature.Entity) (int, error) { return 0, nil }

func (idleFeatures) PublishRaw(context.Context, feature.Report) (int, error) { return 0, nil }

func TestStartServer(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         0,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
	}
	logger := logging.NewLogger(config.LoggerConfig{})

	srv, serverErrors, shutdownChan := startServer(cfg, http.NewServeMux(), logger)
	t.Cleanup(func() { _ = srv.Close() })

	assert.NotNil(t, srv)
	assert.NotNil(t, serverErrors)
	assert.NotNil(t, shutdownChan)
	assert.Equal(t, ":0", srv.Addr)
}

func TestHandleShutdown(t *testing.T) {
	logger := logging.NewLogger(config.LoggerConfig{})
	shutdownChan := make(chan os.Signal, 1)
	serverErrors := make(chan error, 1)
	shutdownChan <- syscall.SIGINT
	serverErrors <- nil

	done := make(chan struct{})
	go func() {
		handleShutdown(&http.Server{}, cron.New(), shutdownChan, serverErrors, logger)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}

func TestStartBatchJobs(t *testing.T) {
	logger := logging.NewLogger(config.LoggerConfig{})
	job := batch.NewFeatureRefreshJob(idleFeatures{}, false, logger)

	t.Run("Disabled Without Schedule", func(t *testing.T) {
		assert.Nil(t, startBatchJobs(&config.Config{}, logger, job))
	})

	t.Run("Invalid Schedule", func(t *testing.T) {
		cfg := &config.Config{Batch: config.BatchConfig{FeatureRefreshSchedule: "not a cron spec"}}
		assert.Nil(t, startBatchJobs(cfg, logger, job))
	})

	t.Run("Scheduled", func(t *testing.T) {
		cfg := &config.Config{Batch: config.BatchConfig{FeatureRefreshSchedule: "0 3 * * *"}}
		c := startBatchJobs(cfg, logger, job)
		require.NotNil(t, c)
		assert.Len(t, c.Entries(), 1)
		<-c.Stop().Done()
	})
}

func TestInitializeEventsDisabled(t *testing.T) {
	logger := logging.NewLogger(config.LoggerConfig{})
	publisher, closeFn := initializeEvents(&config.Config{}, logger)
	defer closeFn()

	assert.IsType(t, &event.NoopPublisher{}, publisher)
}
