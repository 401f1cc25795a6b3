// Command auditbalances recomputes every account balance of a user from the
// entry history and reports drift from the stored balance. Exits non-zero
// when any account is out of sync.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	envconfig "github.com/centavoapp/backend/internal/common/config"
	"github.com/centavoapp/backend/internal/common/logging"
	"github.com/centavoapp/backend/internal/domain/ledger"
	"github.com/centavoapp/backend/internal/domain/user"
	"github.com/centavoapp/backend/internal/events"
	ddbclient "github.com/centavoapp/backend/internal/platform/dynamodb/client"
	"github.com/centavoapp/backend/internal/platform/dynamodb/repository"

	"go.uber.org/zap"
)

func main() {
	ownerID := flag.String("owner", "", "owner user ID to audit")
	flag.Parse()

	if *ownerID == "" {
		log.Fatal("-owner is required")
	}

	_ = godotenv.Load()

	config, err := envconfig.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load Env config: %v", err)
	}
	logger := logging.Must(config.Environment)
	defer logger.Sync()

	owner, err := user.NewContext(*ownerID)
	if err != nil {
		log.Fatalf("Invalid owner: %v", err)
	}

	ctx := context.Background()

	dbClient, err := ddbclient.NewDynamoDBClient(ctx, config.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to create DynamoDB client: %v", err)
	}
	factory := repository.NewFactory(dbClient, config.DynamoDBTableName)
	accounts := factory.AccountRepository()
	ledgerSvc := ledger.NewService(accounts, factory.EntryRepository(), events.Noop{}, logger)

	all, err := accounts.ListAccounts(ctx, *ownerID)
	if err != nil {
		logger.Error("failed to list accounts", zap.Error(err))
		os.Exit(1)
	}

	drifted := 0
	for _, a := range all {
		recomputed, err := ledgerSvc.RecomputeBalance(ctx, owner, a.AccountID)
		if err != nil {
			logger.Error("failed to recompute balance",
				zap.String("accountId", a.AccountID), zap.Error(err))
			drifted++
			continue
		}

		diff := a.CurrentBalance.Sub(recomputed).Abs()
		if diff.LessThan(ledger.Epsilon) {
			continue
		}

		drifted++
		logger.Warn("balance drift detected",
			zap.String("accountId", a.AccountID),
			zap.String("name", a.Name),
			zap.String("stored", a.CurrentBalance.String()),
			zap.String("recomputed", recomputed.String()),
			zap.String("difference", diff.String()))
	}

	logger.Info("audit complete",
		zap.Int("accounts", len(all)),
		zap.Int("drifted", drifted))

	if drifted > 0 {
		os.Exit(1)
	}
}
