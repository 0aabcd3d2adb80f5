package server

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iov-one/barter/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagBind    = "bind"
	flagDebug   = "debug"
	flagMetrics = "metrics"
)

// Options are passed to the AppGenerator when the node starts.
type Options struct {
	// Home is where the application state is stored. An empty value means
	// an in memory store.
	Home   string
	Logger log.Logger
	// Debug returns the full error stack to the client.
	Debug bool
	// Registerer collects the application metrics. Nil when the metrics
	// are disabled.
	Registerer prometheus.Registerer
}

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags
type AppGenerator func(*Options) (abci.Application, error)

type startFlags struct {
	bind    string
	debug   bool
	metrics string
}

func parseFlags(args []string) (startFlags, error) {
	var f startFlags
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.StringVar(&f.bind, flagBind, "tcp://localhost:26658", "address server listens on")
	fs.BoolVar(&f.debug, flagDebug, false, "call stack returned on error")
	fs.StringVar(&f.metrics, flagMetrics, "", "address of the prometheus metrics endpoint, disabled when empty")
	if err := fs.Parse(args); err != nil {
		return f, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return f, nil
}

// StartCmd initializes the application and serves it over the abci socket
// until the process receives an interrupt.
func StartCmd(gen AppGenerator, logger log.Logger, home string, args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	opts := &Options{
		Home:   home,
		Logger: logger,
		Debug:  flags.debug,
	}

	var metrics *http.Server
	if flags.metrics != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewGoCollector())
		opts.Registerer = reg

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metrics = &http.Server{Addr: flags.metrics, Handler: mux}
		go func() {
			logger.Info("Serving metrics", "bind", flags.metrics)
			if err := metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "err", err)
			}
		}()
	}

	app, err := gen(opts)
	if err != nil {
		return err
	}

	logger.Info("Starting ABCI app", "bind", flags.bind)

	svr, err := server.NewServer(flags.bind, "socket", app)
	if err != nil {
		return errors.Wrapf(errors.ErrNetwork, "cannot create listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrapf(errors.ErrNetwork, "cannot start server: %s", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("Shutting down")

	if metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metrics.Shutdown(ctx); err != nil {
			logger.Error("Metrics shutdown", "err", err)
		}
	}
	return svr.Stop()
}
