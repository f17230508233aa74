/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// maxBatchWrite is the BatchWriteItem request limit.
const maxBatchWrite = 25

// batchWrite writes requests in chunks, resubmitting unprocessed items.
func (b *Backend) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += maxBatchWrite {
		end := start + maxBatchWrite
		if end > len(requests) {
			end = len(requests)
		}
		if err := b.writeChunk(ctx, requests[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) writeChunk(ctx context.Context, chunk []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{b.tableName: chunk}
	var lastErr error

	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := b.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{RequestItems: pending})
		switch {
		case err != nil && !isRetryableError(err):
			return fmt.Errorf("BatchWriteItem failed: %w", err)
		case err != nil:
			lastErr = err
		case len(out.UnprocessedItems) == 0:
			return nil
		default:
			pending = out.UnprocessedItems
			lastErr = fmt.Errorf("%d items unprocessed", len(pending[b.tableName]))
		}

		if attempt < b.maxRetries {
			backoff := time.Duration(attempt+1) * b.retryBackoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return fmt.Errorf("batch write failed after %d retries: %w", b.maxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if stderrors.As(err, &throughput) || stderrors.As(err, &limit) || stderrors.As(err, &internal) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if stderrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
