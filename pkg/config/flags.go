package config

import (
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
	"go.temporal.io/sdk/client"

	"github.com/tzrikka/bcdreview/internal/logger"
	"github.com/tzrikka/xdg"
)

const (
	DirName        = "bcdreview"
	ConfigFileName = "config.toml"

	DefaultOTLPEndpoint = "https://localhost:4318"
	DefaultOTLPTimeout  = 10000 // 10 seconds.

	DefaultThrippyGRPCAddress = "localhost:14460"
	DefaultThrippyTokenKey    = "api_token"

	DefaultTaskQueue = "bcdreview"

	DefaultGitHubAPIURL = "https://api.github.com/"
	DefaultWebhookPath  = "/webhook"

	DefaultDataFilePattern      = "**/*.json"
	DefaultTeamSlugSuffix       = "_reviewers"
	DefaultTeamsCacheTTL        = 10 * time.Minute
	DefaultMaxConcurrentFetches = 8
)

// configFile returns the path to the app's configuration file.
// It also creates an empty file if it doesn't already exist.
func configFile() altsrc.StringSourcer {
	path, _ := xdg.FindConfigFile(DirName, ConfigFileName)
	if path != "" {
		return altsrc.StringSourcer(path)
	}

	path, err := xdg.CreateFile(xdg.ConfigHome, DirName, ConfigFileName)
	if err != nil {
		logger.Fatal("failed to create config file", err)
	}
	return altsrc.StringSourcer(path)
}

// Flags defines CLI flags to configure a Temporal worker. These flags are usually
// set using environment variables or the application's configuration file.
func Flags() []cli.Flag {
	path := configFile()

	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "dev",
			Usage: "simple setup, but unsafe for production",
		},
		&cli.BoolFlag{
			Name:  "pretty-log",
			Usage: "human-readable console logging, instead of JSON",
		},

		// https://pkg.go.dev/go.temporal.io/sdk/internal#ClientOptions
		&cli.StringFlag{
			Name:  "temporal-address",
			Usage: "Temporal server address",
			Value: client.DefaultHostPort,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("TEMPORAL_ADDRESS"),
				toml.TOML("temporal.address", path),
			),
		},
		&cli.StringFlag{
			Name:  "temporal-namespace",
			Usage: "Temporal namespace",
			Value: client.DefaultNamespace,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("TEMPORAL_NAMESPACE"),
				toml.TOML("temporal.namespace", path),
			),
		},

		// Worker parameter.
		&cli.StringFlag{
			Name:  "temporal-task-queue",
			Usage: "Temporal task queue for the worker",
			Value: DefaultTaskQueue,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("TEMPORAL_TASK_QUEUE"),
				toml.TOML("temporal.task_queue", path),
			),
		},

		// https://pkg.go.dev/go.temporal.io/sdk/internal#WorkerOptions

		// https://github.com/open-telemetry/opentelemetry-go/blob/main/exporters/otlp/otlpmetric/otlpmetrichttp/doc.go
		&cli.BoolFlag{
			Name:  "otlp-disabled",
			Usage: "Disable exporting OTLP metrics",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("OTEL_EXPORTER_OTLP_DISABLED"),
				toml.TOML("otlp.disabled", path),
			),
		},
		&cli.StringFlag{
			Name:  "otlp-endpoint",
			Usage: "OTLP endpoint using HTTP",
			Value: DefaultOTLPEndpoint,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("OTEL_EXPORTER_OTLP_ENDPOINT"),
				toml.TOML("otlp.endpoint", path),
			),
		},
		&cli.Int64Flag{
			Name:  "otlp-timeout-ms",
			Usage: "OTLP batch export timeout in milliseconds",
			Value: DefaultOTLPTimeout,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("OTEL_EXPORTER_OTLP_TIMEOUT_MS"),
				toml.TOML("otlp.timeout_ms", path),
			),
		},
		&cli.StringFlag{
			Name:  "otlp-compression",
			Usage: "OTLP compression method (e.g. gzip)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("OTEL_EXPORTER_OTLP_COMPRESSION"),
				toml.TOML("otlp.compression", path),
			),
		},

		&cli.StringFlag{
			Name:  "reviews-csv-file",
			Usage: "Optional local CSV file to record review requests",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("REVIEWS_CSV_FILE"),
				toml.TOML("metrics.reviews_csv_file", path),
			),
			TakesFile: true,
		},

		// GitHub.
		&cli.StringFlag{
			Name:  "github-api-url",
			Usage: "GitHub REST API base URL (for GitHub Enterprise Server)",
			Value: DefaultGitHubAPIURL,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("GITHUB_API_URL"),
				toml.TOML("github.api_url", path),
			),
		},
		&cli.StringFlag{
			Name:  "github-token",
			Usage: "GitHub API token (alternative to a Thrippy link)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("GITHUB_TOKEN"),
				toml.TOML("github.token", path),
			),
		},
		&cli.StringFlag{
			Name:  "webhook-address",
			Usage: "Optional listener address for GitHub webhook events (instead of Timpani signals)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WEBHOOK_ADDRESS"),
				toml.TOML("github.webhook.address", path),
			),
		},
		&cli.StringFlag{
			Name:  "webhook-path",
			Usage: "URL path of the GitHub webhook listener",
			Value: DefaultWebhookPath,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WEBHOOK_PATH"),
				toml.TOML("github.webhook.path", path),
			),
		},
		&cli.StringFlag{
			Name:  "webhook-secret",
			Usage: "GitHub webhook secret, to verify event signatures (required with --webhook-address)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("GITHUB_WEBHOOK_SECRET"),
				toml.TOML("github.webhook.secret", path),
			),
		},

		// Browser compatibility data.
		&cli.StringSliceFlag{
			Name:  "data-file-patterns",
			Usage: "Glob patterns of data files in pull requests (supports **)",
			Value: []string{DefaultDataFilePattern},
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("DATA_FILE_PATTERNS"),
				toml.TOML("bcd.data_file_patterns", path),
			),
		},
		&cli.StringFlag{
			Name:  "team-slug-suffix",
			Usage: "Suffix of browser review team slugs (e.g. chrome_reviewers)",
			Value: DefaultTeamSlugSuffix,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("TEAM_SLUG_SUFFIX"),
				toml.TOML("bcd.team_slug_suffix", path),
			),
		},
		&cli.StringSliceFlag{
			Name:  "browser-team-map",
			Usage: "Map of browser IDs to review team slugs which don't follow the suffix convention (e.g. firefox_android=firefox_reviewers)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("BROWSER_TEAM_MAP"),
				toml.TOML("bcd.browser_team_map", path),
			),
		},
		&cli.DurationFlag{
			Name:  "teams-cache-ttl",
			Usage: "How long to cache the list of GitHub org teams",
			Value: DefaultTeamsCacheTTL,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("TEAMS_CACHE_TTL"),
				toml.TOML("bcd.teams_cache_ttl", path),
			),
		},
		&cli.IntFlag{
			Name:  "max-concurrent-fetches",
			Usage: "Maximum number of files fetched and diffed concurrently per PR (0 = unlimited)",
			Value: DefaultMaxConcurrentFetches,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("MAX_CONCURRENT_FETCHES"),
				toml.TOML("bcd.max_concurrent_fetches", path),
			),
		},

		// Thrippy.
		&cli.StringFlag{
			Name:  "thrippy-grpc-address",
			Usage: "Thrippy gRPC server address",
			Value: DefaultThrippyGRPCAddress,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("THRIPPY_GRPC_ADDRESS"),
				toml.TOML("thrippy.grpc_address", path),
			),
		},
		&cli.StringFlag{
			Name:  "thrippy-client-cert",
			Usage: "Thrippy gRPC client's public certificate PEM file (mTLS only)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("THRIPPY_CLIENT_CERT"),
				toml.TOML("thrippy.client_cert", path),
			),
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  "thrippy-client-key",
			Usage: "Thrippy gRPC client's private key PEM file (mTLS only)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("THRIPPY_CLIENT_KEY"),
				toml.TOML("thrippy.client_key", path),
			),
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  "thrippy-server-ca-cert",
			Usage: "Thrippy gRPC server's CA certificate PEM file (both TLS and mTLS)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("THRIPPY_SERVER_CA_CERT"),
				toml.TOML("thrippy.server_ca_cert", path),
			),
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  "thrippy-server-name-override",
			Usage: "Thrippy gRPC server's name override (for testing, both TLS and mTLS)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("THRIPPY_SERVER_NAME_OVERRIDE"),
				toml.TOML("thrippy.server_name_override", path),
			),
		},

		&cli.StringFlag{
			Name:  "thrippy-link-id",
			Usage: "ID of the Thrippy link with GitHub API credentials",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("THRIPPY_LINK_ID"),
				toml.TOML("thrippy.link_id", path),
			),
		},
		&cli.StringFlag{
			Name:  "thrippy-token-key",
			Usage: "Name of the GitHub API token in the Thrippy link's credentials",
			Value: DefaultThrippyTokenKey,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("THRIPPY_TOKEN_KEY"),
				toml.TOML("thrippy.token_key", path),
			),
		},
	}
}
