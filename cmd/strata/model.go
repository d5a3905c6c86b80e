package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/quarrylabs/strata/internal/cluster"
	"github.com/quarrylabs/strata/internal/config"
	"github.com/quarrylabs/strata/internal/corpus"
	"github.com/quarrylabs/strata/internal/encode"
	"github.com/quarrylabs/strata/internal/reduce"
	"github.com/quarrylabs/strata/internal/store"
	"github.com/quarrylabs/strata/internal/topics"
	"github.com/quarrylabs/strata/internal/vectorize"
)

type modelFlags struct {
	path    string
	config  string
	noCache bool
	top     int
	json    bool
	quiet   bool
	resolve config.ResolveOptions
}

func parseModelFlags(args []string) (*modelFlags, error) {
	flags := &modelFlags{top: 10}

	takeValue := func(i *int, name string) (string, error) {
		*i++
		if *i >= len(args) {
			return "", fmt.Errorf("%s requires a value", name)
		}
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		var err error
		switch arg {
		case "--config":
			flags.config, err = takeValue(&i, arg)
		case "--encoder":
			flags.resolve.CLIEncoder, err = takeValue(&i, arg)
		case "--db":
			flags.resolve.CLIDBPath, err = takeValue(&i, arg)
		case "--importance":
			flags.resolve.CLIImportance, err = takeValue(&i, arg)
		case "--reduce-to":
			flags.resolve.CLIReduceTo, err = takeValue(&i, arg)
		case "--components":
			flags.resolve.CLIComponents, err = takeValue(&i, arg)
		case "--eps":
			flags.resolve.CLIEps, err = takeValue(&i, arg)
		case "--min-points":
			flags.resolve.CLIMinPoints, err = takeValue(&i, arg)
		case "--kmeans":
			flags.resolve.CLIKMeans, err = takeValue(&i, arg)
		case "--stop-words":
			flags.resolve.CLIStopWords, err = takeValue(&i, arg)
		case "--top":
			var raw string
			if raw, err = takeValue(&i, arg); err == nil {
				flags.top, err = strconv.Atoi(raw)
			}
		case "--no-cache":
			flags.noCache = true
		case "--json":
			flags.json = true
		case "--quiet", "-q":
			flags.quiet = true
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown flag: %s", arg)
			}
			if flags.path != "" {
				return nil, fmt.Errorf("multiple paths given: %s and %s", flags.path, arg)
			}
			flags.path = arg
		}
		if err != nil {
			return nil, err
		}
	}

	if flags.path == "" {
		return nil, fmt.Errorf("usage: strata model <path> [flags]")
	}
	flags.resolve.ConfigPath = flags.config
	return flags, nil
}

func runModel(args []string) error {
	flags, err := parseModelFlags(args)
	if err != nil {
		return err
	}
	resolved, err := config.ResolveConfig(flags.resolve)
	if err != nil {
		return err
	}

	docs, err := corpus.Load(flags.path)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found at %s", flags.path)
	}
	if !flags.quiet {
		fmt.Fprintf(os.Stderr, "Loaded %d documents from %s\n", len(docs), flags.path)
	}

	encoder, closeEncoder, err := buildEncoder(resolved, flags.noCache)
	if err != nil {
		return err
	}
	defer closeEncoder()

	clusterer, err := buildClusterer(resolved)
	if err != nil {
		return err
	}

	components := reduce.DefaultComponents
	if raw := resolved.Components.Value; raw != "" {
		if components, err = strconv.Atoi(raw); err != nil {
			return fmt.Errorf("invalid components %q: %w", raw, err)
		}
	}
	var reducer topics.Reducer = reduce.PCA{Components: components}
	if components == 0 {
		reducer = reduce.Identity{}
	}

	reduceTo := 0
	if raw := resolved.ReduceTo.Value; raw != "" {
		if reduceTo, err = strconv.Atoi(raw); err != nil {
			return fmt.Errorf("invalid reduce_to %q: %w", raw, err)
		}
	}

	var importance topics.Strategy
	if raw := resolved.Importance.Value; raw != "" {
		if importance, err = topics.ParseStrategy(raw); err != nil {
			return err
		}
	}

	var stopWords []string
	if raw := resolved.StopWords.Value; raw != "" {
		for _, w := range strings.Split(raw, ",") {
			if w = strings.TrimSpace(w); w != "" {
				stopWords = append(stopWords, w)
			}
		}
	}

	opts := topics.Options{
		Encoder:    encoder,
		Vectorizer: vectorize.CountVectorizer{StopWords: stopWords},
		Reducer:    reducer,
		Clusterer:  clusterer,
		Importance: importance,
		ReduceTo:   reduceTo,
	}
	if !flags.quiet {
		opts.Progress = func(stage topics.Stage) {
			fmt.Fprintf(os.Stderr, "  %s...\n", stage)
		}
	}

	model, err := topics.New(opts)
	if err != nil {
		return err
	}
	result, err := model.Fit(context.Background(), corpus.Texts(docs), nil)
	if err != nil {
		return err
	}

	if flags.json {
		return printJSON(result, flags.top)
	}
	printTopics(result, flags.top)
	return nil
}

// buildEncoder constructs the configured encoder, wrapped with the embedding
// cache unless caching is disabled. The returned func releases encoder and
// cache resources.
func buildEncoder(resolved config.ResolvedConfig, noCache bool) (topics.Encoder, func(), error) {
	spec := resolved.Encoder.Value
	if spec == "" {
		spec = "local"
	}

	var (
		inner interface {
			Encode(ctx context.Context, texts []string) ([][]float32, error)
			Model() string
		}
		closers []func()
	)

	if spec == "local" || strings.HasPrefix(spec, "local/") {
		repo := strings.TrimPrefix(spec, "local")
		repo = strings.TrimPrefix(repo, "/")
		local, err := encode.NewLocal(encode.LocalConfig{ModelRepo: repo})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { local.Close() })
		inner = local
	} else {
		cfg, err := encode.ParseFlag(spec)
		if err != nil {
			return nil, nil, err
		}
		client, err := encode.NewClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		inner = client
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if noCache {
		return inner, closeAll, nil
	}

	dbPath := resolved.DBPath.Value
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolving home dir: %w", err)
		}
		dbPath = filepath.Join(home, ".strata", "cache.db")
	}
	cache, err := store.Open(dbPath)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, func() { cache.Close() })
	closeAll = func() {
		for _, c := range closers {
			c()
		}
	}
	return encode.NewCached(inner, cache), closeAll, nil
}

func buildClusterer(resolved config.ResolvedConfig) (topics.Clusterer, error) {
	algorithm := resolved.ClusterAlgorithm.Value
	if algorithm == "" {
		algorithm = "dbscan"
	}

	switch algorithm {
	case "kmeans":
		k, err := strconv.Atoi(resolved.ClusterK.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid k-means cluster count %q: %w", resolved.ClusterK.Value, err)
		}
		return cluster.KMeans{K: k}, nil
	case "dbscan":
		dbscan := cluster.DBSCAN{Eps: cluster.DefaultEps, MinPoints: cluster.DefaultMinPoints}
		if raw := resolved.ClusterEps.Value; raw != "" {
			eps, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid eps %q: %w", raw, err)
			}
			dbscan.Eps = eps
		}
		if raw := resolved.ClusterMinPoints.Value; raw != "" {
			minPoints, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid min_points %q: %w", raw, err)
			}
			dbscan.MinPoints = minPoints
		}
		return dbscan, nil
	default:
		return nil, fmt.Errorf("unknown clustering algorithm %q. Supported: dbscan, kmeans", algorithm)
	}
}

func printTopics(result *topics.FitResult, top int) {
	for i, class := range result.Classes {
		name := fmt.Sprintf("Topic %d", class)
		if class == topics.Outlier {
			name = "Outliers"
		}
		fmt.Printf("%s (%d documents)\n", name, result.TopicSizes[i])

		terms := result.TopTerms(i, top)
		if len(terms) == 0 {
			fmt.Println("  (no characteristic terms)")
			continue
		}
		for _, term := range terms {
			fmt.Printf("  %-24s %.4f\n", term.Term, term.Score)
		}
		fmt.Println()
	}
	if result.Merged != nil {
		fmt.Printf("Merged to %d topics and re-estimated.\n", len(result.Classes))
	}
}

type jsonTopic struct {
	Class int                 `json:"class"`
	Size  int                 `json:"size"`
	Terms []topics.RankedTerm `json:"terms"`
}

type jsonOutput struct {
	Documents int         `json:"documents"`
	Merged    bool        `json:"merged"`
	Topics    []jsonTopic `json:"topics"`
}

func printJSON(result *topics.FitResult, top int) error {
	out := jsonOutput{
		Documents: len(result.Labels),
		Merged:    result.Merged != nil,
		Topics:    make([]jsonTopic, len(result.Classes)),
	}
	for i, class := range result.Classes {
		out.Topics[i] = jsonTopic{
			Class: int(class),
			Size:  result.TopicSizes[i],
			Terms: result.TopTerms(i, top),
		}
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
