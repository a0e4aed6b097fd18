package mockapi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"front/config"
)

const (
	connectAttempts = 3
	connectBackoff  = 2 * time.Second
)

// NewFromConfig assembles a Server from the mock settings: Postgres or the
// seeded in-memory store, an optional DynamoDB archive, and an OpenAI or
// canned responder.
func NewFromConfig(ctx context.Context, cfg config.Mock, logger *zap.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg.PostgresURL, logger)
	if err != nil {
		return nil, err
	}

	var archive Archiver = nopArchiver{}
	if cfg.DynamoDBEndpoint != "" {
		a, err := NewDynamoArchiver(ctx, cfg.DynamoDBEndpoint)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Info("archiving transcripts to dynamodb", zap.String("endpoint", cfg.DynamoDBEndpoint))
		archive = a
	}

	var responder Responder
	if cfg.OpenAIKey != "" {
		logger.Info("mock replies come from openai", zap.String("model", cfg.OpenAIModel))
		responder = NewOpenAIResponder(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	} else {
		responder = NewCannedResponder(cfg.StreamDelay)
	}

	return NewServer(store, archive, responder, logger), nil
}

func openStore(ctx context.Context, postgresURI string, logger *zap.Logger) (Store, error) {
	if postgresURI == "" {
		return NewMemoryStore(), nil
	}

	// 数回リトライを試みる
	var store *PostgresStore
	var err error
	for i := 0; i < connectAttempts; i++ {
		store, err = NewPostgresStore(ctx, postgresURI)
		if err == nil {
			logger.Info("mock store backed by postgres")
			return store, nil
		}
		logger.Warn("failed to open postgres store", zap.Int("attempt", i+1), zap.Error(err))
		if i < connectAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(connectBackoff):
			}
		}
	}
	return nil, err
}
