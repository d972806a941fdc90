package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaultline/spotchain/params"
	"github.com/vaultline/spotchain/pkg/bank"
	"github.com/vaultline/spotchain/pkg/consensus"
	"github.com/vaultline/spotchain/pkg/router"
	"github.com/vaultline/spotchain/pkg/rpcapi"
	"github.com/vaultline/spotchain/pkg/spot"
	"github.com/vaultline/spotchain/pkg/store"
	"github.com/vaultline/spotchain/pkg/util"
	"github.com/vaultline/spotchain/pkg/validatorstate"
)

func main() {
	cfg := params.LoadFromEnv("")

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "data/validator.log"
	}
	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		panic("logger: " + err.Error())
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	// ---- Core state machine ----
	bankController := bank.New()
	spotController := spot.New(bankController, params.SpotControllerAccount)
	if err := spotController.InitializeControllerAccount(); err != nil {
		sugar.Fatalw("init_escrow_account_failed", "err", err)
	}
	r := router.New(bankController, spotController)

	dbPath := os.Getenv("STORE_PATH")
	if dbPath == "" {
		dbPath = "data/validatorstore"
	}
	kv, err := store.OpenPebbleStore(dbPath)
	if err != nil {
		sugar.Fatalw("open_store_failed", "path", dbPath, "err", err)
	}
	defer kv.Close()

	validatorStore, err := store.New(kv, params.GCDepth)
	if err != nil {
		sugar.Fatalw("validator_store_init_failed", "err", err)
	}

	vs := validatorstate.New(r, validatorStore)

	// ---- Consensus: single-process devnet, quorum N=1/T=0 ----
	selfID := consensus.NodeID("validator-1")
	state := &consensus.State{
		Q:       consensus.Quorum{N: 1, T: 0},
		SelfID:  selfID,
		Blocks:  make(map[consensus.Hash]consensus.Block),
		Genesis: consensus.GenesisBlock(),
	}
	safety := consensus.NewSafety(state)
	pm := consensus.NewPacemaker(
		consensus.PacemakerTimers{Ppc: cfg.Consensus.Ppc, Delta: cfg.Consensus.Delta},
		util.RealClock{},
		state,
	)
	elec := consensus.RoundRobinElector{IDs: []consensus.NodeID{selfID}}
	net := consensus.NewLoopbackNet()

	// ---- RPC ----
	mempool := validatorstate.NewMempool()
	apiServer := rpcapi.NewServer(vs, mempool, sugar)

	hook := validatorstate.NewAppHook(vs, mempool, util.RealClock{}, sugar)
	hook.OnBlockSealed = apiServer.NotifyBlockCommitted

	engine := consensus.NewEngine(state, safety, pm, hook, net, elec, nil)
	engine.Logger = sugar
	if os.Getenv("VERBOSE") == "true" {
		engine.VerboseLogging = true
	}

	apiAddr := os.Getenv("API_ADDR")
	if apiAddr == "" {
		apiAddr = ":8080"
	}
	go func() {
		if err := apiServer.ListenAndServe(apiAddr); err != nil {
			sugar.Fatalw("rpcapi_failed", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
			sugar.Fatalw("engine_failed", "err", err)
		}
	}()

	sugar.Infow("validator_started", "api_addr", apiAddr, "store_path", dbPath, "single_node", cfg.Node.SingleNode)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			sugar.Info("shutting_down")
			return
		case <-ticker.C:
			if vs.Halted() {
				sugar.Error("validator_halted")
				return
			}
			sugar.Infow("consensus_progress", "height", state.Height, "view", state.View, "block_number", validatorStore.BlockNumber())
		}
	}
}
