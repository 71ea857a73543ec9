package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-pipeline/internal/ingest"
	"github.com/sells-group/leadgen-pipeline/internal/model"
	"github.com/sells-group/leadgen-pipeline/pkg/google"
)

var servePort int

// jobRunner executes one ingestion job. Satisfied by *ingest.Engine.
type jobRunner interface {
	Run(ctx context.Context, job *model.Job) (*model.CampaignRun, error)
}

// intakeStore is the slice of the store the intake API needs.
type intakeStore interface {
	Ping(ctx context.Context) error
	GetCampaignRun(ctx context.Context, runID string) (*model.CampaignRun, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the job-intake HTTP server",
	Long:  "Serves the job-intake API: POST /jobs/ingest accepts a job descriptor and runs the ingestion asynchronously; GET /runs/{id} reports run progress.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		var gopts []google.Option
		if cfg.Google.BaseURL != "" {
			gopts = append(gopts, google.WithBaseURL(cfg.Google.BaseURL))
		}
		engine := ingest.NewEngine(st, google.NewClient(cfg.Google.Key, gopts...), cfg)

		r := buildRouter(ctx, st, engine)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		return startServer(ctx, r, port)
	},
}

// buildRouter assembles the intake API routes.
func buildRouter(ctx context.Context, st intakeStore, runner jobRunner) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if st != nil {
			if err := st.Ping(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "degraded"})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Post("/jobs/ingest", func(w http.ResponseWriter, req *http.Request) {
		var job model.Job
		if err := json.NewDecoder(req.Body).Decode(&job); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if job.ID == "" || job.SearchListURL == "" {
			http.Error(w, `{"error":"job_id and search_list_url are required"}`, http.StatusBadRequest)
			return
		}

		// Run the job asynchronously; progress lands on the campaign run row.
		// The server context keeps the job alive past this request.
		go func() {
			if runner == nil {
				return
			}
			run, err := runner.Run(ctx, &job)
			if err != nil {
				zap.L().Error("ingestion job failed",
					zap.String("job_id", job.ID),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("ingestion job complete",
				zap.String("job_id", job.ID),
				zap.String("campaign_run_id", run.ID),
				zap.Int("leads_found", run.LeadsFound),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "accepted",
			"job_id": job.ID,
		})
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := st.GetCampaignRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			http.Error(w, `{"error":"lookup failed"}`, http.StatusInternalServerError)
			return
		}
		if run == nil {
			http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(run)
	})

	return r
}

// startServer runs the HTTP server until ctx is cancelled.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
