/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"

	"github.com/suparena/proxystore/datastore"
)

// Client is the subset of the DynamoDB API the backend uses.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *sdk.BatchWriteItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error)
}

var _ Client = (*sdk.Client)(nil)

// Config holds the settings of a DynamoDB connection.
type Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Table     string

	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are
// used when given; otherwise the default AWS credential chain applies.
func NewDynamoDBClient(ctx context.Context, c Config) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(c.Region),
	}
	if c.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	}), nil
}

// Backend is a datastore.Backend on a single DynamoDB table with string
// partition key PK and sort key SK.
//
// Item layout:
//
//	SCHEMA       / TABLE#{Table}  stored schema of a model table
//	COUNTER      / TABLE#{Table}  next row index
//	ROW#{Table}  / IDX#{Index}    row cells
//	PKEY#{Table} / {Key}          primary key to row index
type Backend struct {
	client    Client
	tableName string
	logger    zerolog.Logger

	maxRetries   int
	retryBackoff time.Duration

	// writer holds a token while a transaction is open.
	writer chan struct{}
}

var _ datastore.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger for transaction events.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) {
		b.logger = l
	}
}

// WithRetries sets how often throttled batch writes are retried and the
// base backoff between attempts.
func WithRetries(n int, backoff time.Duration) Option {
	return func(b *Backend) {
		b.maxRetries = n
		b.retryBackoff = backoff
	}
}

// New creates a Backend on an existing client.
func New(client Client, tableName string, opts ...Option) *Backend {
	b := &Backend{
		client:       client,
		tableName:    tableName,
		logger:       zerolog.Nop(),
		maxRetries:   3,
		retryBackoff: 100 * time.Millisecond,
		writer:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open connects to DynamoDB with c.
func Open(ctx context.Context, c Config, opts ...Option) (*Backend, error) {
	client, err := NewDynamoDBClient(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	b := New(client, c.Table, opts...)
	b.logger.Info().Str("table", c.Table).Str("region", c.Region).Msg("DynamoDB client initialized")
	return b, nil
}

// Begin opens a transaction, waiting for any open one of this Backend to
// finish. Reads see committed items; writes are buffered until Commit.
func (b *Backend) Begin(ctx context.Context) (datastore.Transaction, error) {
	select {
	case b.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return newTransaction(ctx, b), nil
}

// Close is a no-op; the client holds no connections that need releasing.
func (b *Backend) Close() error {
	return nil
}
