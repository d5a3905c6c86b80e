// Package config resolves settings from the config file, environment, and
// CLI flags, tracking where each value came from. Later sources win:
// file < environment < flag.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is a setting together with the source that supplied it.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries CLI flag values into resolution.
type ResolveOptions struct {
	ConfigPath    string
	CLIEncoder    string
	CLIDBPath     string
	CLIImportance string
	CLIReduceTo   string
	CLIComponents string
	CLIEps        string
	CLIMinPoints  string
	CLIKMeans     string
	CLIStopWords  string
}

// ResolvedConfig is the full resolved configuration.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	Encoder    ResolvedValue `json:"encoder"`
	DBPath     ResolvedValue `json:"db_path"`
	Importance ResolvedValue `json:"importance"`
	ReduceTo   ResolvedValue `json:"reduce_to"`
	Components ResolvedValue `json:"components"`
	StopWords  ResolvedValue `json:"stop_words"`

	ClusterAlgorithm ResolvedValue `json:"cluster_algorithm"`
	ClusterEps       ResolvedValue `json:"cluster_eps"`
	ClusterMinPoints ResolvedValue `json:"cluster_min_points"`
	ClusterK         ResolvedValue `json:"cluster_k"`
}

type fileConfig struct {
	Encoder    string    `yaml:"encoder"`
	DBPath     string    `yaml:"db_path"`
	Importance string    `yaml:"importance"`
	ReduceTo   string    `yaml:"reduce_to"`
	Components string    `yaml:"components"`
	StopWords  string    `yaml:"stop_words"`
	Clustering yaml.Node `yaml:"clustering"`
}

type clusteringConfig struct {
	Algorithm string `yaml:"algorithm"`
	Eps       string `yaml:"eps"`
	MinPoints string `yaml:"min_points"`
	K         string `yaml:"k"`
}

// DefaultConfigPath returns ~/.strata/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".strata", "config.yaml")
}

// ResolveConfig resolves every setting, applying file values, then
// STRATA_* environment overrides, then CLI flags.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.Encoder, cfg.Encoder, SourceConfig, path)
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.Importance, cfg.Importance, SourceConfig, path)
		apply(&out.ReduceTo, cfg.ReduceTo, SourceConfig, path)
		apply(&out.Components, cfg.Components, SourceConfig, path)
		apply(&out.StopWords, cfg.StopWords, SourceConfig, path)

		clustering, err := decodeClustering(cfg.Clustering, path)
		if err != nil {
			return out, err
		}
		if clustering != nil {
			apply(&out.ClusterAlgorithm, clustering.Algorithm, SourceConfig, path)
			apply(&out.ClusterEps, clustering.Eps, SourceConfig, path)
			apply(&out.ClusterMinPoints, clustering.MinPoints, SourceConfig, path)
			apply(&out.ClusterK, clustering.K, SourceConfig, path)
		}
	}

	applyEnv(&out.Encoder, "STRATA_ENCODER")
	applyEnv(&out.DBPath, "STRATA_DB")
	applyEnv(&out.Importance, "STRATA_IMPORTANCE")
	applyEnv(&out.ReduceTo, "STRATA_REDUCE_TO")
	applyEnv(&out.Components, "STRATA_COMPONENTS")
	applyEnv(&out.StopWords, "STRATA_STOP_WORDS")
	applyEnv(&out.ClusterAlgorithm, "STRATA_CLUSTER")
	applyEnv(&out.ClusterEps, "STRATA_CLUSTER_EPS")
	applyEnv(&out.ClusterMinPoints, "STRATA_CLUSTER_MIN_POINTS")
	applyEnv(&out.ClusterK, "STRATA_CLUSTER_K")

	apply(&out.Encoder, opts.CLIEncoder, SourceCLI, "--encoder")
	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.Importance, opts.CLIImportance, SourceCLI, "--importance")
	apply(&out.ReduceTo, opts.CLIReduceTo, SourceCLI, "--reduce-to")
	apply(&out.Components, opts.CLIComponents, SourceCLI, "--components")
	apply(&out.StopWords, opts.CLIStopWords, SourceCLI, "--stop-words")
	apply(&out.ClusterEps, opts.CLIEps, SourceCLI, "--eps")
	apply(&out.ClusterMinPoints, opts.CLIMinPoints, SourceCLI, "--min-points")
	if strings.TrimSpace(opts.CLIKMeans) != "" {
		apply(&out.ClusterAlgorithm, "kmeans", SourceCLI, "--kmeans")
		apply(&out.ClusterK, opts.CLIKMeans, SourceCLI, "--kmeans")
	}

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

// decodeClustering rejects scalar clustering values with a directive
// message. Writing `clustering: 10` is a common mistake for users who want
// fewer topics; the number of topics after merging is reduce_to, not a
// clustering setting.
func decodeClustering(node yaml.Node, path string) (*clusteringConfig, error) {
	if node.Kind == 0 || node.IsZero() {
		return nil, nil
	}
	if node.Kind == yaml.ScalarNode {
		return nil, fmt.Errorf(
			"parsing %s: clustering takes a mapping of clustering settings, got %q. To control the number of topics, set reduce_to instead",
			path, node.Value,
		)
	}
	var clustering clusteringConfig
	if err := node.Decode(&clustering); err != nil {
		return nil, fmt.Errorf("parsing %s: clustering: %w", path, err)
	}
	return &clustering, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
