package mockapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"front/models"
)

const transcriptTable = "ChatTranscripts"

// Archiver keeps a copy of every chat message outside the primary store.
type Archiver interface {
	Archive(ctx context.Context, conversationID string, msg models.ChatMessage) error
}

type nopArchiver struct{}

func (nopArchiver) Archive(context.Context, string, models.ChatMessage) error { return nil }

// DynamoArchiver writes chat messages to a DynamoDB table keyed by
// conversation and timestamp. It is meant for DynamoDB Local, hence the
// static dummy credentials.
type DynamoArchiver struct {
	db    *dynamodb.Client
	table string
}

func NewDynamoArchiver(ctx context.Context, endpoint string) (*DynamoArchiver, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: endpoint,
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithEndpointResolverWithOptions(customResolver),
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: "dummy", SecretAccessKey: "dummy", SessionToken: "dummy",
			},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	a := &DynamoArchiver{
		db:    dynamodb.NewFromConfig(cfg),
		table: transcriptTable,
	}
	if err := a.ensureTable(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *DynamoArchiver) ensureTable(ctx context.Context) error {
	_, err := a.db.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(a.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("ConversationID"),
				AttributeType: types.ScalarAttributeTypeS,
			},
			{
				AttributeName: aws.String("Timestamp"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("ConversationID"),
				KeyType:       types.KeyTypeHash,
			},
			{
				AttributeName: aws.String("Timestamp"),
				KeyType:       types.KeyTypeRange,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("failed to create table %s: %w", a.table, err)
	}
	return nil
}

func (a *DynamoArchiver) Archive(ctx context.Context, conversationID string, msg models.ChatMessage) error {
	_, err := a.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.table),
		Item: map[string]types.AttributeValue{
			"ConversationID": &types.AttributeValueMemberS{Value: conversationID},
			"Timestamp":      &types.AttributeValueMemberS{Value: msg.Timestamp},
			"MessageID":      &types.AttributeValueMemberS{Value: msg.MessageID},
			"Sender":         &types.AttributeValueMemberS{Value: msg.Sender},
			"SenderType":     &types.AttributeValueMemberS{Value: msg.SenderType},
			"Content":        &types.AttributeValueMemberS{Value: msg.Content},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to archive message %s: %w", msg.MessageID, err)
	}
	return nil
}

// Transcript returns the archived messages of a conversation, oldest first.
func (a *DynamoArchiver) Transcript(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	result, err := a.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(a.table),
		KeyConditionExpression: aws.String("ConversationID = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: conversationID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}

	messages := make([]models.ChatMessage, 0, len(result.Items))
	for _, item := range result.Items {
		messages = append(messages, models.ChatMessage{
			MessageID:  stringAttr(item, "MessageID"),
			Sender:     stringAttr(item, "Sender"),
			SenderType: stringAttr(item, "SenderType"),
			Content:    stringAttr(item, "Content"),
			Timestamp:  stringAttr(item, "Timestamp"),
		})
	}
	return messages, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
