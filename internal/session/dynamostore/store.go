// Package dynamostore implements session.Store on a DynamoDB table.
//
// The table has a single string partition key "key"; every session entry is
// one item with a string "value" and an optional numeric "expires_at" used as
// the table's TTL attribute.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Yulia51188/fish-house/internal/session"
)

const (
	attrKey       = "key"
	attrValue     = "value"
	attrExpiresAt = "expires_at"
)

// dynamodbAPI is the minimal DynamoDB interface required by Store.
// *dynamodb.Client satisfies it.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements session.Store on DynamoDB.
type Store struct {
	api       dynamodbAPI
	tableName string
	keys      session.Keys
	ttl       time.Duration
	now       func() time.Time
}

var _ session.Store = (*Store)(nil)

type Option func(*Store)

// WithTTL stamps every item with an expiry ttl from now.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix namespaces all keys.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.keys.Prefix = prefix
	}
}

// New creates a Store over tableName.
func New(api dynamodbAPI, tableName string, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("dynamostore: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamostore: table name must not be empty")
	}
	s := &Store{api: api, tableName: tableName, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) item(key, value string) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		attrKey:   &types.AttributeValueMemberS{Value: key},
		attrValue: &types.AttributeValueMemberS{Value: value},
	}
	if s.ttl > 0 {
		expires := s.now().Add(s.ttl).Unix()
		item[attrExpiresAt] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expires, 10)}
	}
	return item
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			attrKey: &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("dynamostore: get %q: %w", key, err)
	}
	if out == nil || len(out.Item) == 0 {
		return "", session.ErrNotFound
	}
	if s.expired(out.Item) {
		// TTL deletion in DynamoDB lags; treat stale items as gone.
		return "", session.ErrNotFound
	}
	v, ok := out.Item[attrValue].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dynamostore: item %q has no string value", key)
	}
	return v.Value, nil
}

func (s *Store) expired(item map[string]types.AttributeValue) bool {
	n, ok := item[attrExpiresAt].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	expires, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return false
	}
	return s.now().Unix() >= expires
}

func (s *Store) put(ctx context.Context, key, value string) error {
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      s.item(key, value),
	})
	if err != nil {
		return fmt.Errorf("dynamostore: put %q: %w", key, err)
	}
	return nil
}

// State returns the conversation's state tag.
func (s *Store) State(ctx context.Context, conversationID int64) (string, error) {
	return s.get(ctx, s.keys.State(conversationID))
}

// SetState stores the conversation's state tag. With a TTL set, a live page
// item is rewritten in the same transaction so both items age together.
func (s *Store) SetState(ctx context.Context, conversationID int64, state string) error {
	if s.ttl <= 0 {
		return s.put(ctx, s.keys.State(conversationID), state)
	}
	page, err := s.get(ctx, s.keys.Page(conversationID))
	if errors.Is(err, session.ErrNotFound) {
		return s.put(ctx, s.keys.State(conversationID), state)
	}
	if err != nil {
		return err
	}
	return s.putPair(ctx, conversationID, state, page)
}

// Page returns the conversation's catalog page index.
func (s *Store) Page(ctx context.Context, conversationID int64) (int, error) {
	raw, err := s.get(ctx, s.keys.Page(conversationID))
	if err != nil {
		return 0, err
	}
	page, err := session.ParsePage(raw)
	if err != nil {
		return 0, fmt.Errorf("dynamostore: invalid page value %q: %w", raw, err)
	}
	return page, nil
}

// SetPage stores the conversation's catalog page index.
func (s *Store) SetPage(ctx context.Context, conversationID int64, page int) error {
	return s.put(ctx, s.keys.Page(conversationID), session.FormatPage(page))
}

// Init writes the state and a zero page in one transaction.
func (s *Store) Init(ctx context.Context, conversationID int64, state string) error {
	return s.putPair(ctx, conversationID, state, session.FormatPage(0))
}

func (s *Store) putPair(ctx context.Context, conversationID int64, state, page string) error {
	_, err := s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName: aws.String(s.tableName),
					Item:      s.item(s.keys.State(conversationID), state),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(s.tableName),
					Item:      s.item(s.keys.Page(conversationID), page),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamostore: write session %d: %w", conversationID, err)
	}
	return nil
}
