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

type ContestStorage interface {
	Get(ctx context.Context, id string) (*Contest, error)
	Create(ctx context.Context, contest *Contest) error
	UpdateStatus(ctx context.Context, id string, from, to ContestStatus) error
}

type DynamoContestStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoContestStorage) Get(ctx context.Context, id string) (*Contest, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("CONTEST: failed to marshal key for ID %s: %v", id, err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CONTEST: GetItem for ID %s failed: %v", id, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var contest Contest
	if err := attributevalue.UnmarshalMap(out.Item, &contest); err != nil {
		logging.Log.Errorf("CONTEST: failed to unmarshal contest: %v", err)
		return nil, err
	}
	return &contest, nil
}

func (s *DynamoContestStorage) Create(ctx context.Context, contest *Contest) error {
	item, err := attributevalue.MarshalMap(contest)
	if err != nil {
		logging.Log.Errorf("CONTEST: failed to marshal contest: %v", err)
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
			logging.Log.Warnf("CONTEST: item with ID %s already exists", contest.ID)
			return ErrItemWithIDAlreadyExists
		}
		logging.Log.Errorf("CONTEST: failed to create contest: %v", err)
		return err
	}
	return nil
}

func (s *DynamoContestStorage) UpdateStatus(ctx context.Context, id string, from, to ContestStatus) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:         aws.String("SET #s = :to"),
		ConditionExpression:      aws.String("attribute_exists(PK) AND #s = :from"),
		ExpressionAttributeNames: map[string]string{"#s": "Status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":   &types.AttributeValueMemberS{Value: string(to)},
			":from": &types.AttributeValueMemberS{Value: string(from)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			if _, getErr := s.Get(ctx, id); errors.Is(getErr, ErrNotFound) {
				return ErrNotFound
			}
			logging.Log.Warnf("CONTEST: rejected status change %s -> %s for %s", from, to, id)
			return ErrInvalidStatusTransition
		}
		logging.Log.Errorf("CONTEST: failed to update status for %s: %v", id, err)
		return err
	}
	return nil
}
