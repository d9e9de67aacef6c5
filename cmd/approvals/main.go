package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kwikwag/eth-approvals/internal/chain"
	"github.com/kwikwag/eth-approvals/internal/config"
	"github.com/kwikwag/eth-approvals/internal/risk"
	"github.com/kwikwag/eth-approvals/internal/scan"
	"github.com/kwikwag/eth-approvals/internal/storage"
	"github.com/kwikwag/eth-approvals/internal/storage/postgres"
	"github.com/kwikwag/eth-approvals/internal/tokenlist"
)

func main() {
	root := &cobra.Command{
		Use:          "approvals",
		Short:        "ERC-20 approval risk scanner",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan outstanding approvals for an address",
		RunE:  runScan,
	}

	scanCmd.Flags().String("rpc", "", "chain RPC URL")
	scanCmd.Flags().String("address", "", "owner address to scan")
	scanCmd.Flags().Bool("risk", false, "compute risk scores")
	scanCmd.Flags().String("tokenlist", "", "reputation token list JSON path")
	scanCmd.Flags().String("etherscan-key", "", "Etherscan API key for contract verification")
	scanCmd.Flags().String("router", "", "V2 router address (default: Uniswap V2 mainnet)")
	scanCmd.Flags().String("weth", "", "wrapped native token address (default: WETH mainnet)")
	scanCmd.Flags().String("out", "", "report output path, empty or - for stdout")
	scanCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for scan history")
	scanCmd.Flags().Int("max-retries", 5, "maximum retry attempts for log fetching")
	scanCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	scanCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(scanCmd)

	topicsCmd := &cobra.Command{
		Use:   "topics",
		Short: "Print the Approval and Transfer event topic hashes",
		RunE:  runTopics,
	}

	root.AddCommand(topicsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Address) {
		return fmt.Errorf("valid owner address is required")
	}
	owner := common.HexToAddress(cfg.Address)

	scanCfg := scan.Config{
		Risk:         cfg.Risk,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}
	if cfg.Router != "" {
		if !common.IsHexAddress(cfg.Router) {
			return fmt.Errorf("invalid router address: %s", cfg.Router)
		}
		scanCfg.Router = common.HexToAddress(cfg.Router)
	}
	if cfg.WETH != "" {
		if !common.IsHexAddress(cfg.WETH) {
			return fmt.Errorf("invalid weth address: %s", cfg.WETH)
		}
		scanCfg.WETH = common.HexToAddress(cfg.WETH)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	scanner := scan.New(scanCfg, chainClient, logger)

	result, err := scanner.Scan(ctx, owner)
	if err != nil {
		return err
	}

	if cfg.Risk {
		reputations := risk.Map{}
		if cfg.TokenList != "" {
			reputations, err = tokenlist.Load(cfg.TokenList)
			if err != nil {
				return err
			}
		}

		var verifier risk.Verifier
		if cfg.EtherscanKey != "" {
			verifier = tokenlist.NewEtherscanClient(cfg.EtherscanKey)
		}
		reputations = risk.AugmentVerified(ctx, reputations, resultContracts(result), verifier, logger)

		risk.NewScorer(reputations).Apply(result.Items)
	}

	report := scan.BuildReport(result, time.Now())

	var sink storage.Sink = storage.NewJSONStorage(cfg.Out)
	if err := sink.PutReport(report); err != nil {
		return err
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.PutReport(ctx, report); err != nil {
			return fmt.Errorf("store report: %w", err)
		}
	}

	logger.Info("scan complete",
		zap.String("owner", report.Owner),
		zap.Uint64("block", report.BlockNumber),
		zap.Int("approvals", len(report.Approvals)),
	)
	return nil
}

func runTopics(_ *cobra.Command, _ []string) error {
	approval, err := scan.ApprovalTopic()
	if err != nil {
		return err
	}
	transfer, err := scan.TransferTopic()
	if err != nil {
		return err
	}
	fmt.Printf("Approval(address,address,uint256) %s\n", approval.Hex())
	fmt.Printf("Transfer(address,address,uint256) %s\n", transfer.Hex())
	return nil
}

func resultContracts(result *scan.Result) []common.Address {
	seen := make(map[common.Address]struct{}, len(result.Items))
	contracts := make([]common.Address, 0, len(result.Items))
	for _, item := range result.Items {
		if _, ok := seen[item.Contract]; ok {
			continue
		}
		seen[item.Contract] = struct{}{}
		contracts = append(contracts, item.Contract)
	}
	return contracts
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
