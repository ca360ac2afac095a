// Command hlorm queries and maintains highload block tables from the shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/iancoleman/strcase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/hlblock/hlorm"
	"github.com/hlblock/hlorm/config"
	"github.com/hlblock/hlorm/datamanager"
	"github.com/hlblock/hlorm/datamanager/metrics"
	"github.com/hlblock/hlorm/datamanager/mongostore"
	"github.com/hlblock/hlorm/datamanager/sqlstore"
	"github.com/hlblock/hlorm/fileloader"
)

var (
	cfgFile  string
	settings *config.Settings

	rootCmd = &cobra.Command{
		Use:   "hlorm",
		Short: "Query and maintain highload block tables",
		Long: `hlorm reads highload block tables through the configured data manager.
Settings come from hlorm.yaml, .env files and HLORM_ environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			settings, err = config.Load(config.Options{ConfigFile: cfgFile})
			return err
		},
	}

	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file (default is ./hlorm.yaml or $HOME/.hlorm/hlorm.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// session db opened from the settings, close releases the underlying connections
type session struct {
	db    *hlorm.DB
	files *fileloader.Loader
	close func()
}

func openSession(ctx context.Context, s *config.Settings) (*session, error) {
	log, err := s.Logger(os.Stderr)
	if err != nil {
		return nil, err
	}

	var (
		resolver datamanager.Resolver
		closers  []func()
	)
	switch s.Driver {
	case "mongodb":
		client, err := mongostore.Connect(ctx, s.DSN)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		resolver = mongostore.Resolver(client.Database(s.Database), &mongostore.Config{Logger: log})
	default:
		sqlDB, dialect, err := sqlstore.Open(s.Driver, s.DSN)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { _ = sqlDB.Close() })
		resolver = sqlstore.Resolver(sqlDB, &sqlstore.Config{Dialect: dialect, Logger: log})
	}

	if s.Metrics {
		registry := prometheus.NewRegistry()
		collectors, err := metrics.NewCollectors(registry)
		if err != nil {
			return nil, err
		}
		resolver = collectors.Resolver(resolver)

		server := &http.Server{
			Addr:              s.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "metrics server: %v", err)
			}
		}()
		closers = append(closers, func() { _ = server.Close() })
	}

	files, err := fileloader.Open(afero.NewOsFs(), s.FilesRoot)
	if err != nil {
		return nil, err
	}

	db, err := hlorm.Open(&hlorm.Config{
		Logger:        log,
		Managers:      resolver,
		FileLoader:    files,
		DefaultPrefix: s.Prefix,
		DateFormat:    s.DateFormat,
		UploadFolder:  s.UploadFolder,
	})
	if err != nil {
		return nil, err
	}

	return &session{db: db, files: files, close: func() {
		for idx := len(closers) - 1; idx >= 0; idx-- {
			closers[idx]()
		}
	}}, nil
}

// definition definition of a table known only by name, eg: blog_articles -> BlogArticles
func definition(table string) *hlorm.Definition {
	return &hlorm.Definition{Name: strcase.ToCamel(table), Table: table}
}

func withSession(cmd *cobra.Command, fc func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, settings)
	if err != nil {
		return fmt.Errorf("open %s: %w", settings.Driver, err)
	}
	defer s.close()
	return fc(ctx, s)
}
