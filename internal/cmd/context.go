package cmd

import (
	"context"

	"github.com/jmgilman/ocrrun/internal/config"
	ocrexec "github.com/jmgilman/ocrrun/internal/exec"
	"github.com/jmgilman/ocrrun/internal/pipeline"
)

type contextKey string

const (
	configKey   contextKey = "config"
	loaderKey   contextKey = "loader"
	executorKey contextKey = "executor"
	pipelineKey contextKey = "pipeline"
)

// WithConfig adds the config to the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// ConfigFromContext retrieves the config from context.
func ConfigFromContext(ctx context.Context) *config.Config {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		return nil
	}
	return cfg
}

// WithLoader adds the config loader to the context.
func WithLoader(ctx context.Context, loader *config.Loader) context.Context {
	return context.WithValue(ctx, loaderKey, loader)
}

// LoaderFromContext retrieves the config loader from context.
func LoaderFromContext(ctx context.Context) *config.Loader {
	loader, ok := ctx.Value(loaderKey).(*config.Loader)
	if !ok {
		return nil
	}
	return loader
}

// WithExecutor adds the process executor to the context.
func WithExecutor(ctx context.Context, executor ocrexec.Executor) context.Context {
	return context.WithValue(ctx, executorKey, executor)
}

// ExecutorFromContext retrieves the process executor from context.
func ExecutorFromContext(ctx context.Context) ocrexec.Executor {
	executor, ok := ctx.Value(executorKey).(ocrexec.Executor)
	if !ok {
		return nil
	}
	return executor
}

// WithPipeline adds the pipeline to the context.
func WithPipeline(ctx context.Context, p *pipeline.Pipeline) context.Context {
	return context.WithValue(ctx, pipelineKey, p)
}

// PipelineFromContext retrieves the pipeline from context.
func PipelineFromContext(ctx context.Context) *pipeline.Pipeline {
	p, ok := ctx.Value(pipelineKey).(*pipeline.Pipeline)
	if !ok {
		return nil
	}
	return p
}
