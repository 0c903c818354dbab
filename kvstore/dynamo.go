package kvstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	db "wasmfn/debug"
)

// DynamoStore keys items on a string attribute K and stores the value
// in a binary attribute V.
type DynamoStore struct {
	client *dynamodb.DynamoDB
	table  string
}

func NewDynamoStore(table string) (*DynamoStore, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamo store needs a table")
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}
	return &DynamoStore{client: dynamodb.New(sess), table: table}, nil
}

func (ds *DynamoStore) Put(ctx context.Context, key, val []byte) error {
	db.DPrintf(db.KVSTORE, "dynamo Put %v nbyte %v", string(key), len(val))
	_, err := ds.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(ds.table),
		Item: map[string]*dynamodb.AttributeValue{
			"K": {S: aws.String(string(key))},
			"V": {B: val},
		},
	})
	return err
}

func (ds *DynamoStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	db.DPrintf(db.KVSTORE, "dynamo Get %v", string(key))
	out, err := ds.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ds.table),
		Key: map[string]*dynamodb.AttributeValue{
			"K": {S: aws.String(string(key))},
		},
	})
	if err != nil {
		return nil, false, err
	}
	av, ok := out.Item["V"]
	if !ok || av.B == nil {
		return nil, false, nil
	}
	return av.B, true, nil
}

func (ds *DynamoStore) Close() error {
	return nil
}
