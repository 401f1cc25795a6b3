// Command duealert scans a user's credit card accounts and publishes
// payment_due_soon events for cards whose due date is close. It is meant to
// run on a daily schedule.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	envconfig "github.com/centavoapp/backend/internal/common/config"
	"github.com/centavoapp/backend/internal/common/logging"
	"github.com/centavoapp/backend/internal/domain/account"
	"github.com/centavoapp/backend/internal/domain/billing"
	"github.com/centavoapp/backend/internal/events"
	kafkaevents "github.com/centavoapp/backend/internal/events/kafka"
	ddbclient "github.com/centavoapp/backend/internal/platform/dynamodb/client"
	"github.com/centavoapp/backend/internal/platform/dynamodb/repository"

	"go.uber.org/zap"
)

// Notification thresholds in days before the due date.
const nearDueDays = 7

func main() {
	ownerID := flag.String("owner", "", "owner user ID to scan")
	asOf := flag.String("as-of", "", "reference date (YYYY-MM-DD, default today)")
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

	ref := time.Now().UTC()
	if *asOf != "" {
		ref, err = time.Parse("2006-01-02", *asOf)
		if err != nil {
			log.Fatalf("Invalid -as-of date: %v", err)
		}
	}

	ctx := context.Background()

	dbClient, err := ddbclient.NewDynamoDBClient(ctx, config.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to create DynamoDB client: %v", err)
	}
	factory := repository.NewFactory(dbClient, config.DynamoDBTableName)
	accounts := factory.AccountRepository()

	publisher := kafkaevents.NewPublisher(config.KafkaBrokers, config.KafkaTopic)
	defer publisher.Close()

	cards, err := accounts.ListAccountsByKind(ctx, *ownerID, account.CreditCard)
	if err != nil {
		logger.Error("failed to list credit card accounts", zap.Error(err))
		os.Exit(1)
	}

	failed := false
	for _, card := range cards {
		if card.CreditCard == nil {
			continue
		}
		days, err := billing.DaysUntilDue(card.CreditCard.CutOffDay, card.CreditCard.GraceDays, ref)
		if err != nil {
			logger.Error("failed to compute days until due",
				zap.String("accountId", card.AccountID), zap.Error(err))
			failed = true
			continue
		}
		if days > nearDueDays {
			continue
		}

		logger.Info("payment due soon",
			zap.String("accountId", card.AccountID),
			zap.String("name", card.Name),
			zap.Int("daysUntilDue", days))

		err = publisher.Publish(ctx, events.Event{
			Kind:         events.PaymentDueSoon,
			OwnerID:      *ownerID,
			AccountID:    card.AccountID,
			DaysUntilDue: days,
			At:           time.Now().UTC(),
		})
		if err != nil {
			logger.Error("failed to publish due alert",
				zap.String("accountId", card.AccountID), zap.Error(err))
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}
