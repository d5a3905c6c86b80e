package encode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// DefaultLocalModel is the HuggingFace repo used when no local model is
// configured.
const DefaultLocalModel = "sentence-transformers/all-MiniLM-L6-v2"

// LocalConfig configures in-process ONNX encoding.
type LocalConfig struct {
	ModelRepo      string // HuggingFace repo to download when missing
	CacheDir       string // model cache; defaults to ~/.strata/models
	OrtLibraryPath string // optional explicit onnxruntime shared library
}

// Local encodes texts with a hugot feature-extraction pipeline running an
// ONNX sentence-transformer model in-process. The model is downloaded into
// the cache directory on first use.
type Local struct {
	cfg       LocalConfig
	modelPath string
	session   *hugot.Session
	pipeline  *pipelines.FeatureExtractionPipeline
}

// NewLocal prepares a local encoder. The model is not loaded until the first
// Encode call.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.ModelRepo == "" {
		cfg.ModelRepo = DefaultLocalModel
	}
	if cfg.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home dir: %w", err)
		}
		cfg.CacheDir = filepath.Join(home, ".strata", "models")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("creating model cache dir: %w", err)
	}
	return &Local{
		cfg:       cfg,
		modelPath: filepath.Join(cfg.CacheDir, filepath.Base(cfg.ModelRepo)),
	}, nil
}

// Model returns the configured model repo name.
func (l *Local) Model() string {
	return l.cfg.ModelRepo
}

// Encode returns one embedding vector per input text, in input order.
func (l *Local) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	output, err := l.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("local inference: %w", err)
	}
	return output.Embeddings, nil
}

func (l *Local) ensureLoaded(_ context.Context) error {
	if l.pipeline != nil {
		return nil
	}

	if _, err := os.Stat(l.modelPath); os.IsNotExist(err) {
		downloaded, err := hugot.DownloadModel(l.cfg.ModelRepo, l.cfg.CacheDir, hugot.NewDownloadOptions())
		if err != nil {
			return fmt.Errorf("downloading model %s: %w", l.cfg.ModelRepo, err)
		}
		l.modelPath = downloaded
	}

	sessionOpts := []options.WithOption{
		options.WithIntraOpNumThreads(runtime.NumCPU()),
	}
	if l.cfg.OrtLibraryPath != "" {
		sessionOpts = append(sessionOpts, options.WithOnnxLibraryPath(l.cfg.OrtLibraryPath))
	}

	session, err := hugot.NewORTSession(sessionOpts...)
	if err != nil {
		return fmt.Errorf("creating ONNX session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: l.modelPath,
		Name:      filepath.Base(l.cfg.ModelRepo),
	})
	if err != nil {
		session.Destroy()
		return fmt.Errorf("creating feature extraction pipeline: %w", err)
	}

	l.session = session
	l.pipeline = pipeline
	return nil
}

// Close releases the ONNX session.
func (l *Local) Close() error {
	if l.session != nil {
		l.session.Destroy()
		l.session = nil
	}
	l.pipeline = nil
	return nil
}
