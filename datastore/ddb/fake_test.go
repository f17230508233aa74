/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient is an in-memory stand-in for the DynamoDB operations the
// backend uses.
type fakeClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	batches     []int
	unprocessed int // requests to hand back unprocessed on the next batch
	batchErr    error
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func itemID(key map[string]types.AttributeValue) string {
	pk := key[attrPK].(*types.AttributeValueMemberS).Value
	sk := key[attrSK].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeClient) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sdk.GetItemOutput{Item: f.items[itemID(in.Key)]}, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !strings.HasPrefix(*in.UpdateExpression, "ADD ") {
		return nil, fmt.Errorf("unsupported update %q", *in.UpdateExpression)
	}
	attr := in.ExpressionAttributeNames["#n"]
	delta, _ := strconv.ParseInt(in.ExpressionAttributeValues[":one"].(*types.AttributeValueMemberN).Value, 10, 64)

	id := itemID(in.Key)
	item, ok := f.items[id]
	if !ok {
		item = map[string]types.AttributeValue{attrPK: in.Key[attrPK], attrSK: in.Key[attrSK]}
		f.items[id] = item
	}
	var current int64
	if n, ok := item[attr].(*types.AttributeValueMemberN); ok {
		current, _ = strconv.ParseInt(n.Value, 10, 64)
	}
	next := &types.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}
	item[attr] = next
	return &sdk.UpdateItemOutput{Attributes: map[string]types.AttributeValue{attr: next}}, nil
}

func (f *fakeClient) Query(ctx context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pk := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	var count int32
	for id := range f.items {
		if strings.HasPrefix(id, pk+"|") {
			count++
		}
	}
	return &sdk.QueryOutput{Count: count}, nil
}

func (f *fakeClient) BatchWriteItem(ctx context.Context, in *sdk.BatchWriteItemInput, _ ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.batchErr != nil {
		return nil, f.batchErr
	}

	out := &sdk.BatchWriteItemOutput{}
	for table, requests := range in.RequestItems {
		if len(requests) > maxBatchWrite {
			return nil, fmt.Errorf("batch of %d requests exceeds limit", len(requests))
		}
		f.batches = append(f.batches, len(requests))

		if f.unprocessed > 0 {
			n := f.unprocessed
			if n > len(requests) {
				n = len(requests)
			}
			f.unprocessed = 0
			out.UnprocessedItems = map[string][]types.WriteRequest{table: requests[len(requests)-n:]}
			requests = requests[:len(requests)-n]
		}

		for _, r := range requests {
			switch {
			case r.PutRequest != nil:
				f.items[itemID(r.PutRequest.Item)] = r.PutRequest.Item
			case r.DeleteRequest != nil:
				delete(f.items, itemID(r.DeleteRequest.Key))
			}
		}
	}
	return out, nil
}

func (f *fakeClient) has(key map[string]types.AttributeValue) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[itemID(key)]
	return ok
}
