package storage

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jichangyoon/samu-rewards/logging"
)

// MemeStorage never deletes memes. VoteCount is only changed by VoteStorage.Create.
type MemeStorage interface {
	Get(ctx context.Context, id string) (*Meme, error)
	Create(ctx context.Context, meme *Meme) error
	ListByContest(ctx context.Context, contestID string) ([]*Meme, error)
	ArchiveByContest(ctx context.Context, contestID string) (int, error)
}

type DynamoMemeStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoMemeStorage) Get(ctx context.Context, id string) (*Meme, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("MEME: failed to marshal key for ID %s: %v", id, err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("MEME: GetItem for ID %s failed: %v", id, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var meme Meme
	if err := attributevalue.UnmarshalMap(out.Item, &meme); err != nil {
		logging.Log.Errorf("MEME: failed to unmarshal meme: %v", err)
		return nil, err
	}
	return &meme, nil
}

func (s *DynamoMemeStorage) Create(ctx context.Context, meme *Meme) error {
	item, err := attributevalue.MarshalMap(meme)
	if err != nil {
		logging.Log.Errorf("MEME: failed to marshal meme: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			logging.Log.Warnf("MEME: item with ID %s already exists", meme.ID)
			return ErrItemWithIDAlreadyExists
		}
		logging.Log.Errorf("MEME: failed to create meme: %v", err)
		return err
	}
	return nil
}

func (s *DynamoMemeStorage) ListByContest(ctx context.Context, contestID string) ([]*Meme, error) {
	paginator := dynamodb.NewScanPaginator(s.Client, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("ContestID = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: contestID},
		},
	})

	memes := make([]*Meme, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logging.Log.Errorf("MEME: scan for contest %s failed: %v", contestID, err)
			return nil, err
		}

		var batch []*Meme
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			logging.Log.Errorf("MEME: failed to unmarshal meme list: %v", err)
			return nil, err
		}
		memes = append(memes, batch...)
	}
	return memes, nil
}

func (s *DynamoMemeStorage) ArchiveByContest(ctx context.Context, contestID string) (int, error) {
	memes, err := s.ListByContest(ctx, contestID)
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, m := range memes {
		if m.Archived {
			continue
		}
		_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(s.TableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: m.ID},
			},
			UpdateExpression:          aws.String("SET Archived = :val"),
			ExpressionAttributeValues: map[string]types.AttributeValue{":val": &types.AttributeValueMemberBOOL{Value: true}},
		})
		if err != nil {
			logging.Log.Errorf("MEME: failed to archive meme %s: %v", m.ID, err)
			return archived, err
		}
		archived++
	}

	logging.Log.Infof("MEME: archived %d memes for contest %s", archived, contestID)
	return archived, nil
}
