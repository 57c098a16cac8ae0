package main

import (
	"context"
	"embed"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/bridge"
	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
	"github.com/GuardianUI/storycheck/mockwallet/pkg/rpc"
)

//go:embed config/migrations/*/*.sql
var embedMigrations embed.FS

const (
	rpcListenEndpoint = "/ws"
	metricsEndpoint   = "/metrics"
	startupTimeout    = 30 * time.Second
	metricsInterval   = 15 * time.Second
)

func main() {
	logger := log.NewZapLogger(log.Config{Format: "console", Level: log.LevelInfo, Output: "stderr"}).Named("mockwallet")
	if len(os.Args) > 1 {
		// If a CLI command is provided, run it and exit
		runCli(logger, os.Args[1])
		return
	}

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", "err", err)
	}
	logger = log.NewZapLogger(config.Log).Named("mockwallet")

	var prereq *Prerequisites
	if config.PrerequisitesPath != "" {
		if prereq, err = LoadPrerequisites(config.PrerequisitesPath); err != nil {
			logger.Fatal("failed to load prerequisites", "err", err)
		}
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	nodeClient, err := gethrpc.DialContext(startCtx, config.NodeURL)
	if err != nil {
		logger.Fatal("failed to dial node", "url", config.NodeURL, "err", err)
	}
	defer nodeClient.Close()
	ethClient := ethclient.NewClient(nodeClient)

	if err := resetFork(startCtx, nodeClient, prereq); err != nil {
		logger.Fatal("failed to prepare node", "err", err)
	}

	var expectedChainID *big.Int
	if prereq != nil {
		expectedChainID = prereq.ChainIDBig()
	}
	chainID, err := resolveChainID(startCtx, ethClient, config.ChainIDBig(), expectedChainID)
	cancelStart()
	if err != nil {
		logger.Fatal("chain check failed", "err", err)
	}
	logger.Info("connected to node", "url", config.NodeURL, "chainId", chainID.String())

	db, err := ConnectToDB(config.Database, logger)
	if err != nil {
		logger.Fatal("failed to setup database", "err", err)
	}
	store := NewSnapshotStore(db)
	metrics := NewMetrics()

	sessionConf := SessionConfig{
		Delegate:     nodeClient,
		Backend:      ethClient,
		PrivateKey:   config.PrivateKey,
		ChainID:      chainID,
		Mode:         config.SubmitMode,
		ConnectDelay: config.ConnectDelay,
	}
	if prereq != nil {
		if sessionConf.PrefundWei, err = prereq.InitialBalanceWei(); err != nil {
			logger.Fatal("invalid prerequisites", "err", err)
		}
	}

	var rpcNode *rpc.WebsocketNode
	sessions := NewSessionManager(sessionConf, store, metrics, func(connID, event string, payload ...any) bool {
		return rpcNode.Notify(connID, event, payload...)
	}, logger)

	rpcNode, err = rpc.NewWebsocketNode(rpc.WebsocketNodeConfig{
		Logger:          logger,
		OnConnect:       sessions.Open,
		OnDisconnect:    sessions.Close,
		OnRequestServed: metrics.ObserveRequest,
		OnMessageSent:   func([]byte) { metrics.MessageSent.Inc() },
	})
	if err != nil {
		logger.Fatal("failed to create rpc node", "err", err)
	}

	rpcMux := http.NewServeMux()
	rpcMux.Handle(rpcListenEndpoint, rpcNode)
	rpcMux.Handle("GET /provider.js", rpc.ShimHandler(rpcListenEndpoint))
	rpcMux.Handle("GET /snapshot/{session}", NewSnapshotExporter(store))

	rpcServer := &http.Server{
		Addr:    config.ListenAddr,
		Handler: rpcMux,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle(metricsEndpoint, promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    config.MetricsAddr,
		Handler: metricsMux,
	}

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	defer stopMetrics()
	go metrics.RecordMetricsPeriodically(metricsCtx, store, metricsInterval, logger)

	go func() {
		logger.Info("Prometheus metrics available", "listenAddr", config.MetricsAddr, "endpoint", metricsEndpoint)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failure", "err", err)
		}
	}()

	go func() {
		logger.Info("wallet bridge available", "listenAddr", config.ListenAddr, "endpoint", rpcListenEndpoint, "mode", config.SubmitMode)
		if err := rpcServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("RPC server failure", "err", err)
		}
	}()

	// Wait for shutdown signal.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down metrics server", "err", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rpcServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down RPC server", "err", err)
	}

	if config.SubmitMode == bridge.ModeObserve {
		if fileName, err := NewSnapshotExporter(store).ExportToFile(config.ResultsDir, ""); err != nil {
			logger.Error("failed to export snapshot", "err", err)
		} else {
			logger.Info("snapshot exported", "file", fileName)
		}
	}

	logger.Info("shutdown complete")
}

func runCli(logger log.Logger, name string) {
	switch name {
	case "export-snapshot":
		runExportSnapshotCli(logger)
	case "address":
		runAddressCli(logger)
	default:
		logger.Fatal("Unknown CLI command", "name", name)
	}
}
