package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gin-gonic/gin"
	"github.com/jichangyoon/samu-rewards/api/controllers"
	"github.com/jichangyoon/samu-rewards/api/transport"
	"github.com/jichangyoon/samu-rewards/balance"
	"github.com/jichangyoon/samu-rewards/distribution"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/rewards"
	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/jichangyoon/samu-rewards/storage"
	"github.com/jichangyoon/samu-rewards/wallet"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// Stores groups the storage implementations selected by storage.driver.
type Stores struct {
	Contests      storage.ContestStorage
	Memes         storage.MemeStorage
	Votes         storage.VoteStorage
	Distributions storage.DistributionStorage
}

func OpenStores(ctx context.Context, cfg StorageConfig) (*Stores, error) {
	if cfg.Driver == DriverDynamo {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
		return &Stores{
			Contests: &storage.DynamoContestStorage{Client: client, TableName: cfg.TableNameContests},
			Memes:    &storage.DynamoMemeStorage{Client: client, TableName: cfg.TableNameMemes},
			Votes: &storage.DynamoVoteStorage{
				Client:         client,
				TableName:      cfg.TableNameVotes,
				MemesTableName: cfg.TableNameMemes,
			},
			Distributions: &storage.DynamoDistributionStorage{Client: client, TableName: cfg.TableNameDistributions},
		}, nil
	}

	db, err := storage.OpenSQL(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	return &Stores{
		Contests:      &storage.SQLContestStorage{DB: db},
		Memes:         &storage.SQLMemeStorage{DB: db},
		Votes:         &storage.SQLVoteStorage{DB: db},
		Distributions: &storage.SQLDistributionStorage{DB: db},
	}, nil
}

type Server struct {
	config     *Config
	stores     *Stores
	router     *gin.Engine
	breakdowns *rewards.Service
	sweeper    *distribution.Sweeper
	reconciler *balance.Reconciler
}

// NewServer wires storage, the reward engine, the chain client and every
// controller. Nothing is started until Start.
func NewServer(ctx context.Context, config *Config) (*Server, error) {
	stores, err := OpenStores(ctx, config.Storage)
	if err != nil {
		return nil, err
	}

	breakdowns, err := rewards.NewService(rewards.ServiceConfig{
		Reader:   rewards.NewLedgerReader(stores.Memes, stores.Votes),
		Ratios:   config.Rewards.Ratios,
		CacheTTL: config.Rewards.CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	recorder, err := distribution.NewRecorder(distribution.RecorderConfig{
		Store:            stores.Distributions,
		Currency:         config.Distribution.Currency,
		CurrencyDecimals: config.Distribution.CurrencyDecimals,
	})
	if err != nil {
		return nil, err
	}

	sweeper, err := distribution.NewSweeper(distribution.SweeperConfig{
		Store:      stores.Distributions,
		StaleAfter: config.Distribution.StaleAfter,
		Interval:   config.Distribution.SweepInterval,
	})
	if err != nil {
		return nil, err
	}

	mint, err := solana.ValidateAddress(config.Solana.SamuMint)
	if err != nil {
		return nil, err
	}
	chain, err := solana.NewClient(solana.ClientConfig{
		Endpoints:  solana.NewEndpoints(config.Solana.RPCEndpoints),
		SamuMint:   mint,
		Commitment: rpc.CommitmentType(config.Solana.Commitment),
	})
	if err != nil {
		return nil, err
	}

	registry, err := wallet.NewRegistry(wallet.RegistryConfig{IdleTimeout: config.Balance.SessionIdle})
	if err != nil {
		return nil, err
	}
	reconciler, err := balance.NewReconciler(balance.ReconcilerConfig{
		Fetcher:      chain,
		Relay:        chain,
		Sessions:     registry,
		RefreshDelay: config.Balance.RefreshDelay,
		CacheTTL:     config.Balance.CacheTTL,
		PollInitial:  config.Balance.PollInitial,
		PollMax:      config.Balance.PollMax,
	})
	if err != nil {
		return nil, err
	}

	mode := gin.DebugMode
	if config.Server.Mode == ModeLambda {
		mode = gin.ReleaseMode
	}
	r := transport.NewRouter(transport.RouterConfig{Mode: mode, EnableSwagger: config.Server.EnableSwagger})
	limiter := transport.NewRateLimiter(config.RateLimit.PerSecond, config.RateLimit.Burst)

	//Register controllers
	controllers.NewVotingController(stores.Memes, stores.Votes, stores.Contests, breakdowns, reconciler, limiter).RegisterRoutes(r)
	controllers.NewMemeController(stores.Memes, stores.Contests).RegisterRoutes(r)
	controllers.NewRewardsController(breakdowns, stores.Contests, registry).RegisterRoutes(r)
	controllers.NewDistributionController(recorder, breakdowns, stores.Contests, config.Server.AdminToken).RegisterRoutes(r)
	controllers.NewWalletController(registry, reconciler, limiter).RegisterRoutes(r)
	controllers.NewAdminController(stores.Contests, stores.Memes, config.Server.AdminToken).RegisterRoutes(r)

	return &Server{
		config:     config,
		stores:     stores,
		router:     r,
		breakdowns: breakdowns,
		sweeper:    sweeper,
		reconciler: reconciler,
	}, nil
}

func (s *Server) Breakdowns() *rewards.Service {
	return s.breakdowns
}

func (s *Server) Sweeper() *distribution.Sweeper {
	return s.sweeper
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks until the process is told to stop. The stale sweeper only runs
// in local mode; a frozen lambda cannot keep a schedule.
func (s *Server) Start() error {
	defer s.Close()

	if s.config.Server.Mode == ModeLambda {
		startLambda(s.router)
		return nil
	}

	if err := s.sweeper.Start(); err != nil {
		return err
	}
	return startLocal(s.router, s.config.Server.Port)
}

func (s *Server) Close() {
	s.sweeper.Stop()
	s.reconciler.Close()
}

// StartLambda sets up for AWS Lambda
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// StartLocal serves HTTP until SIGINT or SIGTERM, then drains in-flight requests.
func startLocal(engine *gin.Engine, port int) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logging.Log.Errorf("Failed to run server: %v", err)
		return err
	case <-ctx.Done():
	}

	logging.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
