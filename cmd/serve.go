package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alstn9213/open-insight/internal/analysis"
	"github.com/alstn9213/open-insight/internal/auth"
	"github.com/alstn9213/open-insight/internal/geo"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the market analysis API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		// Boundary data is optional: without it the map overlay simply
		// has no coordinates.
		var boundaries *geo.Index
		if cfg.Geo.BoundaryShapefile != "" {
			boundaries, err = geo.LoadIndex(cfg.Geo.BoundaryShapefile)
			if err != nil {
				zap.L().Warn("boundary shapefile unavailable, map overlay will have no coordinates",
					zap.String("path", cfg.Geo.BoundaryShapefile),
					zap.Error(err),
				)
				boundaries = nil
			}
		}

		issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}

		server := &apiServer{
			analyzer: analysis.NewAnalyzer(st, locatorOrNil(boundaries), cfg.Ranking.TopN),
			auth:     auth.NewService(st, issuer),
			issuer:   issuer,
		}
		router := newRouter(server, cfg.Server.AllowedOrigins)

		port := resolvePort(servePort, cfg.Server.Port)
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// locatorOrNil avoids storing a typed nil in the analyzer's interface field.
func locatorOrNil(idx *geo.Index) analysis.Locator {
	if idx == nil {
		return nil
	}
	return idx
}

func resolvePort(flagPort, configPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return configPort
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
