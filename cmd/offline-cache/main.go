package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	offlinecache "github.com/offline-cache/offline-cache"
	"github.com/offline-cache/offline-cache/cache"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	portFlag           int
	originFlag         string
	dbFilenameFlag     string
	configFileFlag     string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&originFlag, "origin", "", "Origin URL to intercept requests for")
	flag.IntVar(&portFlag, "port", 0, "Port to listen on")
	flag.StringVar(&dbFilenameFlag, "db", "", "Store DB file name (use 'memory' for in-memory db)")
	flag.StringVar(&configFileFlag, "config", "", "YAML config file (seed manifest, cache version)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	config, err := loadConfig(configFileFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load config")
	}
	// flags override file and environment
	if originFlag != "" {
		config.Origin = originFlag
	}
	if portFlag != 0 {
		config.Port = portFlag
	}
	if dbFilenameFlag != "" {
		config.DB = dbFilenameFlag
	}
	if config.Origin == "" {
		log.Fatal().Msg("Please specify origin")
	}
	originURL, err := url.Parse(config.Origin)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse origin url")
	}

	// set up sqlite store
	dbFilename := config.DB
	if dbFilename == "memory" {
		dbFilename = "file::memory:?cache=shared"
	}
	store := cache.NewSQLiteStore(dbFilename)

	oc := offlinecache.CreateOfflineCache(offlinecache.Config{
		Store:            store,
		OriginURL:        *originURL,
		StaticNamespace:  config.staticNamespace(),
		RuntimeNamespace: config.runtimeNamespace(),
		SeedPaths:        config.SeedPaths,
		Logger:           &log.Logger,
	})

	ctx := context.Background()
	current := offlinecache.NewNamespaceSet(config.staticNamespace(), config.runtimeNamespace())

	// a failed install means the offline shell is not guaranteed,
	// but the interception layer can still serve
	if err := oc.Install(ctx); err != nil {
		log.Error().Err(err).Msg("App shell install failed")
	}
	if err := oc.Activate(ctx, current); err != nil {
		log.Error().Err(err).Msg("Stale namespace eviction incomplete")
	}

	r := chi.NewRouter()
	r.Get("/-/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/-/status", func(w http.ResponseWriter, r *http.Request) {
		namespaces, err := store.Namespaces()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		counts := make(map[string]int, len(namespaces))
		for _, namespace := range namespaces {
			count := 0
			store.Keys(namespace, func(string) { count++ })
			counts[namespace] = count
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(counts)
	})
	r.Post("/-/purge", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = config.Prefix
		}
		if err := oc.PurgeStale(r.Context(), prefix, current); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/-/sync", func(w http.ResponseWriter, r *http.Request) {
		oc.ReplaySync(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/*", oc)

	log.Info().Msgf("Intercepting port %v for origin %s", config.Port, originURL.String())
	err = http.ListenAndServe(fmt.Sprintf(":%d", config.Port), r)

	if err != nil {
		panic(err)
	}
}
