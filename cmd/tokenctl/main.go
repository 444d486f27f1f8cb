// Command tokenctl is the maintenance CLI for the token metadata, the public config document
// and the staking ledger.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"fidolity-token-api/internal/apiclient"
	"fidolity-token-api/internal/appconfig"
	"fidolity-token-api/internal/config"
	"fidolity-token-api/internal/services"
	"fidolity-token-api/internal/store"
	"fidolity-token-api/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// EnvAPIKey names the variable holding the API key sent with backend requests
const EnvAPIKey = "FIDOLITY_API_KEY"

// app holds the dependencies commands are built from. Each one is a constructor so that
// a command only dials what it uses.
type app struct {
	cfg         *config.Config
	openStore   func(ctx context.Context) (store.Store, func(), error)
	api         func() services.API
	chain       func() services.ChainClient
	overrides   func() appconfig.OverrideStore
	httpClient  *http.Client
	initLogging func(verbose bool) error
}

func newApp(cfg *config.Config) *app {
	httpClient := &http.Client{Timeout: cfg.Client.Timeout}

	return &app{
		cfg: cfg,
		openStore: func(ctx context.Context) (store.Store, func(), error) {
			client, err := store.Connect(ctx, &cfg.MongoDB)
			if err != nil {
				return nil, nil, err
			}
			closeFn := func() { _ = client.Disconnect(context.Background()) }
			return store.NewMongoStore(client.Database(cfg.MongoDB.Database)), closeFn, nil
		},
		api: func() services.API {
			c := apiclient.New(cfg.Client.APIBaseURL, httpClient)
			if key := os.Getenv(EnvAPIKey); key != "" {
				c = c.WithAPIKey(key)
			}
			return c
		},
		chain: func() services.ChainClient {
			return services.NewSolanaClient(&cfg.RPC)
		},
		overrides: func() appconfig.OverrideStore {
			return appconfig.NewFileOverrideStore(cfg.Profile.Path)
		},
		httpClient: httpClient,
		initLogging: func(verbose bool) error {
			level := "warn"
			if verbose {
				level = "debug"
			}
			return logger.Initialize(&logger.Config{
				Level:       level,
				Environment: cfg.Logging.Environment,
				OutputPaths: []string{"stderr"},
				Service:     "tokenctl",
			})
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "tokenctl",
		Short: "Maintain token metadata, config.json and the staking ledger",
		Long: `tokenctl manages the token_info table, the public config.json document,
the local contract address override and the staking ledger.

Database commands read MONGODB_URI and MONGODB_DATABASE. Backend commands
talk to API_BASE_URL and send FIDOLITY_API_KEY when it is set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initLogging(verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newCheckTokensCmd(a),
		newSetContractAddressCmd(a),
		newGenerateConfigCmd(a),
		newUpdateConfigCmd(a),
		newConfigCmd(a),
		newBalanceCmd(a),
		newStakeCmd(a, true),
		newStakeCmd(a, false),
		newTVLCmd(a),
	)
	return root
}

func main() {
	config.LoadDotEnv()
	cfg := config.LoadConfig()

	if err := newRootCmd(newApp(cfg)).ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

var (
	success = color.New(color.FgGreen)
	notice  = color.New(color.FgYellow)
	label   = color.New(color.Bold)
)

func printField(cmd *cobra.Command, name string, value interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %s %v\n", label.Sprint(name+":"), value)
}
