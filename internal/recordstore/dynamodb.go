package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/joelkehle/lease-audit/internal/analysis"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// dynamoItem is the table layout. The analysis is stored as a JSON string so
// its nullable fields survive unchanged.
type dynamoItem struct {
	AuditID    string `dynamodbav:"audit_id"`
	Status     string `dynamodbav:"status"`
	Filename   string `dynamodbav:"filename,omitempty"`
	SourcePath string `dynamodbav:"source_path,omitempty"`
	PDFPath    string `dynamodbav:"pdf_path,omitempty"`
	Analysis   string `dynamodbav:"analysis,omitempty"`
	Error      string `dynamodbav:"error,omitempty"`
	CreatedAt  string `dynamodbav:"created_at"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

// DynamoStore keeps one item per audit in a table keyed by audit_id.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
}

func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) Get(ctx context.Context, auditID string) (Record, error) {
	if s.client == nil {
		return Record{}, fmt.Errorf("DynamoDB client not initialized")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]dynamodbtypes.AttributeValue{
			"audit_id": &dynamodbtypes.AttributeValueMemberS{Value: auditID},
		},
	})
	if err != nil {
		return Record{}, fmt.Errorf("get audit: %w", err)
	}
	if out.Item == nil {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, auditID)
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Record{}, fmt.Errorf("unmarshal audit: %w", err)
	}
	return item.record()
}

func (s *DynamoStore) Upsert(ctx context.Context, rec Record) error {
	if s.client == nil {
		return fmt.Errorf("DynamoDB client not initialized")
	}
	if rec.AuditID == "" {
		return fmt.Errorf("audit_id is required")
	}
	item := dynamoItem{
		AuditID:    rec.AuditID,
		Status:     string(rec.Status),
		Filename:   rec.Filename,
		SourcePath: rec.SourcePath,
		PDFPath:    rec.PDFPath,
		Error:      rec.Error,
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if rec.Analysis != nil {
		blob, err := json.Marshal(rec.Analysis)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
		item.Analysis = string(blob)
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal audit: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put audit: %w", err)
	}
	return nil
}

func (s *DynamoStore) Close() error { return nil }

func (it dynamoItem) record() (Record, error) {
	rec := Record{
		AuditID:    it.AuditID,
		Status:     Status(it.Status),
		Filename:   it.Filename,
		SourcePath: it.SourcePath,
		PDFPath:    it.PDFPath,
		Error:      it.Error,
	}
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, it.CreatedAt); err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, it.UpdatedAt); err != nil {
		return Record{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if it.Analysis != "" {
		var a analysis.Result
		if err := json.Unmarshal([]byte(it.Analysis), &a); err != nil {
			return Record{}, fmt.Errorf("unmarshal analysis: %w", err)
		}
		rec.Analysis = &a
	}
	return rec, nil
}
