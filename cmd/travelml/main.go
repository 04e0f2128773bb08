package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/api"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/artifact"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/config"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/logging"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/predict"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/training"
)

var rootCmd = &cobra.Command{
	Use:           "travelml",
	Short:         "travelml - travel package purchase prediction and customer segmentation",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the transformer, select a model and fit the segmentation",
	RunE:  runTrain,
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict one customer record read as JSON from --record or stdin",
	RunE:  runPredict,
}

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Print the segmentation summary",
	RunE:  runSegments,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions over HTTP",
	RunE:  runServe,
}

var (
	configFlag string
	dataFlag   string
	recordFlag string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (default: $TRAVELML_CONFIG or ./config.yaml)")
	trainCmd.Flags().StringVarP(&dataFlag, "data", "d", "", "Training CSV (overrides data.path)")
	predictCmd.Flags().StringVarP(&recordFlag, "record", "r", "-", "JSON record file, - for stdin")
	rootCmd.AddCommand(trainCmd, predictCmd, segmentsCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration, initialises logging and opens the artifact store.
func setup() (*config.Config, *artifact.Store, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logging.Init(cfg.Logging)
	store, err := artifact.NewStore(cfg.Artifacts.Dir, cfg.Artifacts.Files)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, store, err := setup()
	if err != nil {
		return err
	}
	path := cfg.Data.Path
	if dataFlag != "" {
		path = dataFlag
	}
	if path == "" {
		return errors.New("no training data: set data.path or pass --data")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := training.NewTrainer(cfg, store, logging.Component("training")).RunFile(ctx, path)
	if err != nil {
		if training.IsModelQuality(err) {
			return fmt.Errorf("%w (widen the hyperparameter grids or add families, then retrain)", err)
		}
		return err
	}
	return printJSON(cmd.OutOrStdout(), sum)
}

// predictOutput is what the predict command prints.
type predictOutput struct {
	Label   predict.Label       `json:"label"`
	Family  string              `json:"family"`
	Segment *predict.Assignment `json:"segment,omitempty"`
}

func runPredict(cmd *cobra.Command, _ []string) error {
	_, store, err := setup()
	if err != nil {
		return err
	}
	var in io.Reader = cmd.InOrStdin()
	if recordFlag != "-" {
		f, err := os.Open(recordFlag)
		if err != nil {
			return fmt.Errorf("open record: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	var rec data.RawRecord
	if err := json.NewDecoder(in).Decode(&rec); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	svc := predict.NewService(store, logging.Component("predict"))
	if err := svc.Load(); err != nil {
		return fmt.Errorf("%s: %w", api.StatusNotTrained, err)
	}
	label, err := svc.Predict(&rec)
	if err != nil {
		return fmt.Errorf("%s: %w", api.StatusPredictFailed, err)
	}
	out := predictOutput{Label: label, Family: svc.Family()}
	if a, err := svc.AssignSegment(&rec); err == nil {
		out.Segment = &a
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func runSegments(cmd *cobra.Command, _ []string) error {
	_, store, err := setup()
	if err != nil {
		return err
	}
	meta, err := store.LoadMetadata()
	if errors.Is(err, artifact.ErrNotFound) {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), api.StatusNoSegmentation)
		return err
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), meta)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, store, err := setup()
	if err != nil {
		return err
	}
	log := logging.Component("server")

	svc := predict.NewService(store, logging.Component("predict"))
	if err := svc.Load(); err != nil {
		log.Warn().Err(err).Msg("serving without a model until training completes")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Watch {
		go func() {
			if err := svc.Watch(ctx); err != nil {
				log.Error().Err(err).Msg("artifact watcher stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewHandler(svc, logging.Component("api")).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
