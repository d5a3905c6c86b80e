package main

import (
	"fmt"
	"os"

	"github.com/quarrylabs/strata/internal/config"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "model":
		if err := runModel(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "config":
		if err := runConfig(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("strata %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// runConfig prints the resolved configuration with value provenance.
func runConfig(args []string) error {
	var configPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			i++
			if i >= len(args) {
				return fmt.Errorf("--config requires a path")
			}
			configPath = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{ConfigPath: configPath})
	if err != nil {
		return err
	}

	fmt.Printf("Config file: %s\n\n", resolved.ConfigPath)
	printValue("encoder", resolved.Encoder)
	printValue("db_path", resolved.DBPath)
	printValue("importance", resolved.Importance)
	printValue("reduce_to", resolved.ReduceTo)
	printValue("components", resolved.Components)
	printValue("clustering.algorithm", resolved.ClusterAlgorithm)
	printValue("clustering.eps", resolved.ClusterEps)
	printValue("clustering.min_points", resolved.ClusterMinPoints)
	printValue("clustering.k", resolved.ClusterK)
	return nil
}

func printValue(name string, v config.ResolvedValue) {
	if v.Value == "" {
		fmt.Printf("  %-22s (unset)\n", name)
		return
	}
	fmt.Printf("  %-22s %s  [%s: %s]\n", name, v.Value, v.Source, v.From)
}

func printUsage() {
	fmt.Printf(`strata %s — Clustering topic models over document embeddings

Usage:
  strata <command> [arguments]

Commands:
  model <path>        Fit a topic model over documents at <path>
  config              Show resolved configuration and where values came from
  version             Print version

Model Flags:
  --encoder <p/m>     Embedding encoder: "local", "local/<repo>", or
                      provider/model (ollama, openai, deepseek, openrouter, custom)
  --db <path>         Embedding cache database (default ~/.strata/cache.db)
  --no-cache          Disable the embedding cache
  --importance <s>    Term importance strategy: ctfidf or centroid
  --reduce-to <n>     Merge topics down to n after estimation
  --components <n>    PCA components before clustering (0 disables reduction)
  --eps <f>           DBSCAN neighborhood radius (cosine distance)
  --min-points <n>    DBSCAN core point threshold
  --kmeans <k>        Cluster with k-means into k clusters instead of DBSCAN
  --stop-words <w,w>  Comma-separated terms to exclude from the vocabulary
  --top <n>           Terms to print per topic (default 10)
  --json              Emit the fitted model as JSON
  --quiet             Suppress progress output

Flags:
  --config <path>     Config file (default ~/.strata/config.yaml)
  -h, --help          Show this help message
  -v, --version       Print version
`, version)
}
