package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"creative-ads-pipeline/application/ports/outbound"
	"creative-ads-pipeline/application/services"
	"creative-ads-pipeline/config"
	"creative-ads-pipeline/infrastructure/adapters"
	"creative-ads-pipeline/infrastructure/gin_interface/controllers"
	"creative-ads-pipeline/middleware"
	mockupstreams "creative-ads-pipeline/mock"
)

// Per-upstream HTTP timeouts. Generation is the slow call, status checks
// must stay snappy so polling never piles up.
const (
	generationTimeout  = 60 * time.Second
	videoSubmitTimeout = 30 * time.Second
	videoStatusTimeout = 15 * time.Second
	recordStoreTimeout = 20 * time.Second
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "creative-ads-pipeline",
		Short: "Generate, validate, persist, and render AI ad creative sets",
	}
	rootCmd.AddCommand(serveCmd(), checkStoreCmd(), mockUpstreamsCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func serveCmd() *cobra.Command {
	var addr string
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			zeroLogger := adapters.NewZerologWrapper()

			groqConfig, err := config.GetGroqConfig()
			if err != nil {
				zeroLogger.Warn("Generation credentials missing, generation is disabled")
				groqConfig = &config.GroqConfig{}
			}
			kieConfig, err := config.GetKieConfig()
			if err != nil {
				zeroLogger.Warn("Video render credentials missing, rendering is disabled")
				kieConfig = &config.KieConfig{}
			}
			notionConfig, err := config.GetNotionConfig()
			if err != nil {
				zeroLogger.Warn("Record store credentials missing, persistence is disabled")
				notionConfig = &config.NotionConfig{}
			}

			panicHandler := func(p interface{}) {
				zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
			}
			workerPool, err := ants.NewPool(16, ants.WithPanicHandler(panicHandler))
			if err != nil {
				return err
			}
			defer workerPool.Release()

			generator := adapters.NewGroqGenerator(
				adapters.NewContentFetcher(zeroLogger, generationTimeout), groqConfig, zeroLogger)
			videoJobs := adapters.NewKieVideoClient(
				adapters.NewContentFetcher(zeroLogger, videoSubmitTimeout),
				adapters.NewContentFetcher(zeroLogger, videoStatusTimeout),
				kieConfig, zeroLogger)
			store := adapters.NewNotionStore(
				adapters.NewContentFetcher(zeroLogger, recordStoreTimeout), notionConfig, zeroLogger)

			pipeline := services.NewAdsPipelineOrchestrator(zeroLogger, generator, videoJobs, store, config.CredentialsReady)

			if pollInterval > 0 {
				var dispatcher outbound.TaskDispatcher = workerPool
				err = dispatcher.Submit(func() {
					ticker := time.NewTicker(pollInterval)
					defer ticker.Stop()
					for range ticker.C {
						pipeline.PollVideos(context.Background())
					}
				})
				if err != nil {
					return err
				}
			}

			router := gin.New()
			router.Use(gin.Recovery())
			router.Use(middleware.RequestLogger(zeroLogger))
			if err := router.SetTrustedProxies(nil); err != nil {
				return err
			}

			controllers.NewCreativesController(zeroLogger, pipeline, store).RegisterRoutes(router)

			zeroLogger.InfoWithFields("Server starting", map[string]interface{}{"addr": addr})
			return router.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 5*time.Second, "background video poll interval, 0 disables")
	return cmd
}

func checkStoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-store",
		Short: "Verify the record store schema has every required property",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			zeroLogger := adapters.NewZerologWrapper()
			notionConfig, err := config.GetNotionConfig()
			if err != nil {
				return err
			}

			store := adapters.NewNotionStore(
				adapters.NewContentFetcher(zeroLogger, recordStoreTimeout), notionConfig, zeroLogger)

			report, err := store.CheckSchema(cmd.Context())
			if err != nil {
				return err
			}

			for name, propType := range report.Types {
				fmt.Printf("%-14s %s\n", name, propType)
			}
			if !report.OK {
				return fmt.Errorf("schema is missing properties: %v", report.Missing)
			}
			fmt.Println("Schema OK.")
			return nil
		},
	}
}

func mockUpstreamsCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mock-upstreams",
		Short: "Serve fake generation, video render, and record store endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			zeroLogger := adapters.NewZerologWrapper()

			router := gin.New()
			router.Use(gin.Recovery())
			router.Use(middleware.RequestLogger(zeroLogger))
			if err := router.SetTrustedProxies(nil); err != nil {
				return err
			}

			mockupstreams.Init(router, zeroLogger)

			zeroLogger.InfoWithFields("Mock upstreams starting", map[string]interface{}{"addr": addr})
			return router.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9090", "listen address")
	return cmd
}
