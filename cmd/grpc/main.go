package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-cashier-service/config"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/category"
	"github.com/fekuna/omnipos-cashier-service/internal/event"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory"
	"github.com/fekuna/omnipos-cashier-service/internal/label"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/pricing"
	"github.com/fekuna/omnipos-cashier-service/internal/product"
	"github.com/fekuna/omnipos-cashier-service/internal/receipt"
	"github.com/fekuna/omnipos-cashier-service/internal/report"
	"github.com/fekuna/omnipos-cashier-service/internal/scan"
	"github.com/fekuna/omnipos-cashier-service/internal/store"
	"github.com/fekuna/omnipos-cashier-service/internal/store/memory"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction"
	"github.com/fekuna/omnipos-cashier-service/internal/user"
	"github.com/fekuna/omnipos-cashier-service/internal/void"
	"github.com/fekuna/omnipos-cashier-service/migrations"
	"github.com/fekuna/omnipos-cashier-service/pkg/broker"
	"github.com/fekuna/omnipos-cashier-service/pkg/cache"
	"github.com/fekuna/omnipos-cashier-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-cashier-service/pkg/i18n"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/fekuna/omnipos-cashier-service/pkg/middleware"
	"github.com/fekuna/omnipos-cashier-service/pkg/search"

	catH "github.com/fekuna/omnipos-cashier-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/omnipos-cashier-service/internal/category/repository"
	catUCPkg "github.com/fekuna/omnipos-cashier-service/internal/category/usecase"

	invH "github.com/fekuna/omnipos-cashier-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-cashier-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-cashier-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-cashier-service/internal/inventory/usecase"

	prodH "github.com/fekuna/omnipos-cashier-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-cashier-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-cashier-service/internal/product/usecase"

	reportH "github.com/fekuna/omnipos-cashier-service/internal/report/handler"
	reportRepoPkg "github.com/fekuna/omnipos-cashier-service/internal/report/repository"
	reportUCPkg "github.com/fekuna/omnipos-cashier-service/internal/report/usecase"

	trxH "github.com/fekuna/omnipos-cashier-service/internal/transaction/handler"
	trxRepoPkg "github.com/fekuna/omnipos-cashier-service/internal/transaction/repository"
	trxUCPkg "github.com/fekuna/omnipos-cashier-service/internal/transaction/usecase"

	userH "github.com/fekuna/omnipos-cashier-service/internal/user/handler"
	userRepoPkg "github.com/fekuna/omnipos-cashier-service/internal/user/repository"
	userUCPkg "github.com/fekuna/omnipos-cashier-service/internal/user/usecase"

	voidH "github.com/fekuna/omnipos-cashier-service/internal/void/handler"
	voidRepoPkg "github.com/fekuna/omnipos-cashier-service/internal/void/repository"
	voidUCPkg "github.com/fekuna/omnipos-cashier-service/internal/void/usecase"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// repositories is the storage backend chosen by STORAGE_DRIVER.
type repositories struct {
	tx           store.Transactor
	users        user.Repository
	products     product.Repository
	categories   category.Repository
	inventory    inventory.Repository
	transactions transaction.Repository
	voids        void.Repository
	reports      report.Repository
	close        func()
}

func openPostgres(cfg *config.Config, appLogger logger.ZapLogger) *repositories {
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if cfg.Postgres.MigrateOnStart {
		if err := postgres.Migrate(db, migrations.FS, "."); err != nil {
			appLogger.Fatal("Could not run migrations", zap.Error(err))
		}
		appLogger.Info("Database migrations applied")
	}

	return &repositories{
		tx:           postgres.NewTxManager(db),
		users:        userRepoPkg.NewPGRepository(db),
		products:     prodRepoPkg.NewPGRepository(db),
		categories:   catRepoPkg.NewPGRepository(db),
		inventory:    invRepoPkg.NewPGRepository(db),
		transactions: trxRepoPkg.NewPGRepository(db),
		voids:        voidRepoPkg.NewPGRepository(db),
		reports:      reportRepoPkg.NewPGRepository(db),
		close:        func() { _ = db.Close() },
	}
}

func openMemory(appLogger logger.ZapLogger) *repositories {
	appLogger.Warn("Using in-memory storage, data is lost on restart")
	db := memory.NewDB()
	return &repositories{
		tx:           db,
		users:        memory.NewUserRepository(db),
		products:     memory.NewProductRepository(db),
		categories:   memory.NewCategoryRepository(db),
		inventory:    memory.NewInventoryRepository(db),
		transactions: memory.NewTransactionRepository(db),
		voids:        memory.NewVoidRepository(db),
		reports:      memory.NewReportRepository(db),
		close:        func() {},
	}
}

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()
	i18n.Init()

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	warnings, err := cfg.Validate()
	if err != nil {
		appLogger.Fatal("Refusing to start", zap.Error(err))
	}
	for _, w := range warnings {
		appLogger.Warn("Insecure development setting", zap.String("detail", w))
	}

	// 3. Storage
	var repos *repositories
	switch cfg.Server.StorageDriver {
	case "postgres":
		repos = openPostgres(cfg, appLogger)
	case "memory":
		repos = openMemory(appLogger)
	default:
		appLogger.Fatal("Unknown storage driver", zap.String("driver", cfg.Server.StorageDriver))
	}
	defer repos.close()

	// 4. Redis: cross-process product locks and the product list cache
	var locker store.Locker = store.NewLocalLocker()
	var listCache product.ListCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient, "lock:product:")
		listCache = redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Kafka
	var publisher event.Publisher
	var restockConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.TransactionsTopic,
		})
		defer producer.Close()
		publisher = producer

		restockConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.RestockTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer restockConsumer.Close()
		appLogger.Info("Kafka enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("transactions_topic", cfg.Kafka.TransactionsTopic),
			zap.String("restock_topic", cfg.Kafka.RestockTopic),
		)
	}

	// 6. Elasticsearch
	var searchIndex product.SearchIndex
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, product search falls back to the database", zap.Error(err))
		} else {
			searchIndex = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 7. Pricing
	taxRate, err := decimal.NewFromString(cfg.Store.TaxRate)
	if err != nil {
		appLogger.Fatal("Invalid TAX_RATE", zap.String("value", cfg.Store.TaxRate), zap.Error(err))
	}
	engine, err := pricing.NewEngine(taxRate, int32(cfg.Store.CurrencyScale))
	if err != nil {
		appLogger.Fatal("Invalid pricing configuration", zap.Error(err))
	}

	// 8. Initialize UseCases
	tokens := auth.NewTokenManager(cfg.JWT.SecretKey, time.Duration(cfg.JWT.TTLMinutes)*time.Minute)
	userUC := userUCPkg.NewUserUseCase(repos.users, tokens, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(repos.inventory, repos.tx, locker, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(repos.products, invUC, repos.tx, locker, listCache, searchIndex, appLogger)
	trxUC := trxUCPkg.NewTransactionUseCase(repos.transactions, repos.products, invUC, repos.tx, locker, engine, publisher, appLogger)
	voidUC := voidUCPkg.NewVoidUseCase(repos.voids, repos.transactions, invUC, repos.tx, locker, publisher, appLogger)
	catUC := catUCPkg.NewCategoryUseCase(repos.categories, appLogger)
	reportUC := reportUCPkg.NewReportUseCase(repos.reports, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seeded, err := userUC.SeedAdmin(ctx, cfg.Seed.AdminPassword)
	if err != nil {
		appLogger.Fatal("Could not seed admin user", zap.Error(err))
	}
	if seeded {
		appLogger.Warn("Seeded default admin user, change its password", zap.String("username", userUCPkg.DefaultAdminUsername))
	}

	// 9. Listeners
	if restockConsumer != nil {
		service, err := userUC.ServiceAccount(ctx)
		if err != nil {
			appLogger.Fatal("Could not resolve service account for restock events", zap.Error(err))
		}
		appLogger.Info("Restock events applied as service account", zap.String("username", service.Username))
		restockListener := invListenerPkg.NewRestockListener(restockConsumer, invUC, userUC, service, appLogger)
		go restockListener.Start(ctx)
	}

	if cfg.Scan.Device != "" {
		device, err := os.Open(cfg.Scan.Device)
		if err != nil {
			appLogger.Fatal("Could not open scanner device", zap.String("device", cfg.Scan.Device), zap.Error(err))
		}
		defer device.Close()
		dispatcher := scan.NewDispatcher(prodUC, func(ctx context.Context, p *model.Product) {
			appLogger.Info("Product scanned",
				zap.String("code", p.Code),
				zap.String("name", p.Name),
				zap.String("price", p.SellingPrice.String()),
				zap.Int("stock", p.Stock),
			)
		}, appLogger)
		go func() {
			if err := dispatcher.Run(ctx, scan.NewLineSource(device)); err != nil {
				appLogger.Error("Scan dispatcher stopped", zap.Error(err))
			}
		}()
	}

	// 10. Receipt printer and label generator
	printer := receipt.NewPrinter(
		receipt.Company{
			Name:    cfg.Store.CompanyName,
			Address: cfg.Store.CompanyAddress,
			Phone:   cfg.Store.CompanyPhone,
			Footer:  cfg.Store.ReceiptFooter,
		},
		receipt.NewRenderer(cfg.Store.ReceiptLocale, cfg.Store.ReceiptWidth),
		receipt.NewSpoolSink(cfg.Spool.ReceiptDir),
		appLogger,
	)
	labels := label.NewService(label.NewSpoolGenerator(cfg.Spool.LabelDir), cfg.Spool.LabelDir, appLogger)

	// 11. Initialize Handlers
	userHandler := userH.NewUserHandler(userUC, appLogger)
	prodHandler := prodH.NewProductHandler(prodUC, labels, appLogger)
	catHandler := catH.NewCategoryHandler(catUC, appLogger)
	invHandler := invH.NewInventoryHandler(invUC, appLogger)
	trxHandler := trxH.NewTransactionHandler(trxUC, printer, appLogger)
	voidHandler := voidH.NewVoidHandler(voidUC, appLogger)
	reportHandler := reportH.NewReportHandler(reportUC, appLogger)

	// 12. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.ContextInterceptor(),
			middleware.RecoveryInterceptor(appLogger),
			middleware.LoggingInterceptor(appLogger),
			auth.UnaryInterceptor(tokens, userUC, userH.LoginMethod),
		),
	)

	// Register Services
	userHandler.Register(grpcServer)
	prodHandler.Register(grpcServer)
	catHandler.Register(grpcServer)
	invHandler.Register(grpcServer)
	trxHandler.Register(grpcServer)
	voidHandler.Register(grpcServer)
	reportHandler.Register(grpcServer)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server",
		zap.String("port", port),
		zap.String("storage", cfg.Server.StorageDriver),
	)

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
