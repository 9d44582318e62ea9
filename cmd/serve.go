package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nitpickr-api/config"
	"nitpickr-api/database"
	"nitpickr-api/internal/aiclient"
	adminapi "nitpickr-api/internal/api/admin"
	authapi "nitpickr-api/internal/api/auth"
	billingapi "nitpickr-api/internal/api/billing"
	filesapi "nitpickr-api/internal/api/files"
	"nitpickr-api/internal/api/listings"
	teamsapi "nitpickr-api/internal/api/teams"
	"nitpickr-api/internal/api/users"
	routes "nitpickr-api/internal/app/http"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/billing"
	"nitpickr-api/internal/cache"
	"nitpickr-api/internal/infra/email"
	stripeinfra "nitpickr-api/internal/infra/stripe"
	"nitpickr-api/internal/jobs"
	"nitpickr-api/internal/storage"
	"nitpickr-api/internal/usage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	stripeinfra.Init(config.STRIPE_SECRET_KEY)

	cache.Queries = cache.NewQueryCache(store, time.Duration(config.CACHE_TTL_SECONDS)*time.Second,
		config.REDIS_CACHE_ENABLED, "teams").
		Link("team_members", "teams")
	if err := database.DB.Use(cache.Queries); err != nil {
		return err
	}

	files, err := storage.New(ctx, storage.Config{
		Type:            config.STORAGE_TYPE,
		LocalDir:        config.STORAGE_LOCAL_DIR,
		Bucket:          config.STORAGE_BUCKET,
		Region:          config.STORAGE_REGION,
		CredentialsFile: config.GCS_CREDENTIALS_FILE,
	})
	if err != nil {
		return err
	}

	mailer, err := email.New(email.Config{
		Provider:     config.EMAIL_PROVIDER,
		From:         config.EMAIL_FROM,
		AppURL:       config.APP_URL,
		APIURL:       config.API_URL,
		SMTPHost:     config.SMTP_HOST,
		SMTPPort:     config.SMTP_PORT,
		SMTPPassword: config.SMTP_PASSWORD,
		SESRegion:    config.SES_REGION,
	})
	if err != nil {
		return err
	}
	authapi.Mailer = mailer

	usageSvc := usage.NewService(database.DB, store)
	customers := &stripeinfra.Customers{
		DB:          database.DB,
		API:         stripeinfra.NewCustomerAPI(),
		UserBilling: config.STRIPE_USER_BILLING_ENABLED,
	}

	scheduler := jobs.NewScheduler()
	if store != nil {
		scheduler.Register(jobs.Job{
			Name:     "usage-cleanup",
			Schedule: config.USAGE_CLEANUP_SCHEDULE,
			Timeout:  10 * time.Minute,
			Run:      usageSvc.CleanupJob,
		})
	}
	if err := scheduler.Start(); err != nil {
		return err
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(config.CORS_ORIGIN, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	deps := routes.Deps{
		Usage:    usageSvc,
		Listings: listings.NewHandler(aiclient.New(config.AI_SERVER_URL, config.SEARCH_SERVER_URL)),
		Users:    users.NewHandler(usageSvc),
		Teams:    teamsapi.NewHandler(usageSvc, mailer),
		Billing:  billingapi.NewHandler(customers),
		Files:    filesapi.NewHandler(files, usageSvc),
		Admin:    adminapi.NewHandler(usageSvc, billing.NewSyncer(database.DB, billing.StripeSource{})),
	}
	if strings.EqualFold(config.STORAGE_TYPE, storage.TypeLocal) || config.STORAGE_TYPE == "" {
		deps.UploadsDir = config.STORAGE_LOCAL_DIR
	}
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{Addr: ":" + config.PORT, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening", "port", config.PORT, "env", config.APP_ENV)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			scheduler.Stop(context.Background())
			return err
		}
	case sig := <-stop:
		log.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
