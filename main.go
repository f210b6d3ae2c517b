package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tournevent/sendparcel/internal/config"
	"github.com/tournevent/sendparcel/internal/server"
	"github.com/tournevent/sendparcel/pkg/sendparcel"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "0.0.1"

var (
	useMock    bool
	production bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "sendparcel",
	Short:   "SendParcel (Pos Laju) API client and gateway",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "List the supported API operations",
	Args:  cobra.NoArgs,
	RunE:  runOperations,
}

var callCmd = &cobra.Command{
	Use:   "call <operation> [key=value ...]",
	Short: "Call an API operation with form parameters",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCall,
}

var postcodeCmd = &cobra.Command{
	Use:   "postcode <postcode>",
	Short: "Look up postcode details",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostcode,
}

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Quote prices from one postcode to one or more receivers",
	Args:  cobra.NoArgs,
	RunE:  runPrice,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "use the in-process fake API")
	rootCmd.PersistentFlags().BoolVar(&production, "production", false, "use the production API instead of the sandbox")

	priceCmd.Flags().String("from", "", "sender postcode")
	priceCmd.Flags().StringSlice("to", nil, "receiver postcodes")
	priceCmd.Flags().String("weight", "0.1", "declared weight in kg")
	priceCmd.Flags().String("country", "MY", "receiver country code")
	priceCmd.MarkFlagRequired("from")
	priceCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(serveCmd, operationsCmd, callCmd, postcodeCmd, priceCmd)
}

// session is the shared setup of every command that talks to the API.
type session struct {
	cfg      *config.Config
	logger   *otelzap.Logger
	client   *sendparcel.Client
	registry *prometheus.Registry
	close    func()
}

func newSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, err
	}

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
		tracerShutdown = func(context.Context) error { return nil }
	}

	reg := prometheus.NewRegistry()
	client, cleanup, err := initClient(cfg, logger, reg)
	if err != nil {
		tracerShutdown(ctx)
		return nil, err
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		registry: reg,
		close: func() {
			cleanup()
			tracerShutdown(context.Background())
			logger.Sync()
		},
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer sess.close()
	cfg := sess.cfg

	sess.logger.Info("Starting SendParcel gateway",
		zap.Int("port", cfg.Port),
		zap.String("base_url", sess.client.BaseURL()),
		zap.String("version", cfg.Version),
	)

	srv := server.New(server.Config{Port: cfg.Port}, sess.client, sess.logger, sess.registry)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runOperations(cmd *cobra.Command, args []string) error {
	base := sendparcel.BaseURL(!production)
	out := cmd.OutOrStdout()
	for _, e := range sendparcel.Endpoints() {
		fmt.Fprintf(out, "%-7s %-24s %s%s\n", e.Method, e.Path, base, e.Path)
	}
	return nil
}

func runCall(cmd *cobra.Command, args []string) error {
	payload, err := parseParams(args[1:])
	if err != nil {
		return err
	}

	sess, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.close()

	env, err := sess.client.Do(cmd.Context(), args[0], payload)
	if err != nil {
		return err
	}
	return printEnvelope(cmd.OutOrStdout(), env)
}

func runPostcode(cmd *cobra.Command, args []string) error {
	sess, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.close()

	env, err := sess.client.GetPostcodeDetails(cmd.Context(), &sendparcel.GetPostcodeDetailsRequest{Postcode: args[0]})
	if err != nil {
		return err
	}
	return printEnvelope(cmd.OutOrStdout(), env)
}

func runPrice(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetStringSlice("to")
	weight, _ := cmd.Flags().GetString("weight")
	country, _ := cmd.Flags().GetString("country")

	sess, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.close()

	results, err := quotePrices(cmd.Context(), sess.client, from, to, weight, country)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// quotePrices checks prices to every receiver concurrently. Results are
// keyed by receiver postcode.
func quotePrices(ctx context.Context, client *sendparcel.Client, from string, to []string, weight, country string) (map[string]json.RawMessage, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]json.RawMessage, len(to))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, receiver := range to {
		receiver := receiver
		g.Go(func() error {
			env, err := client.CheckPrice(gctx, &sendparcel.CheckPriceRequest{
				SenderPostcode:      from,
				ReceiverPostcode:    receiver,
				ReceiverCountryCode: country,
				DeclaredWeight:      weight,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", receiver, err)
			}
			mu.Lock()
			results[receiver] = env.Raw
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// parseParams turns key=value arguments into a payload.
func parseParams(args []string) (sendparcel.Params, error) {
	params := make(sendparcel.Params, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}

func printEnvelope(w io.Writer, env *sendparcel.Envelope) error {
	var v any
	if err := json.Unmarshal(env.Raw, &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
