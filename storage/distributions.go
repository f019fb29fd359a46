package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/shopspring/decimal"
)

type DistributionStorage interface {
	// Create inserts the record only if no distribution exists for its
	// OrderID, otherwise ErrDistributionExists.
	Create(ctx context.Context, d *Distribution) error
	GetByOrder(ctx context.Context, orderID string) (*Distribution, error)
	ListByContest(ctx context.Context, contestID string) ([]*Distribution, error)
	ListByStatus(ctx context.Context, statuses ...DistributionStatus) ([]*Distribution, error)
	// UpdateStatus moves the record to `to` only when its current status is one
	// of `from`, otherwise ErrInvalidStatusTransition.
	UpdateStatus(ctx context.Context, orderID string, from []DistributionStatus, to DistributionStatus, reason string) error
}

// DynamoDistributionStorage keys records by PK=OrderID.
type DynamoDistributionStorage struct {
	Client    *dynamodb.Client
	TableName string
}

type distributionItem struct {
	OrderID         string    `dynamodbav:"PK"`
	ID              string    `dynamodbav:"ID"`
	ContestID       string    `dynamodbav:"ContestID"`
	Currency        string    `dynamodbav:"Currency"`
	TotalAmount     string    `dynamodbav:"TotalAmount"`
	CreatorAmount   string    `dynamodbav:"CreatorAmount"`
	VoterPoolAmount string    `dynamodbav:"VoterPoolAmount"`
	PlatformAmount  string    `dynamodbav:"PlatformAmount"`
	CreatorRatio    string    `dynamodbav:"CreatorRatio"`
	VoterRatio      string    `dynamodbav:"VoterRatio"`
	PlatformRatio   string    `dynamodbav:"PlatformRatio"`
	Status          string    `dynamodbav:"Status"`
	FailureReason   string    `dynamodbav:"FailureReason"`
	CreatedAt       time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt       time.Time `dynamodbav:"UpdatedAt"`
}

func toDistributionItem(d *Distribution) distributionItem {
	return distributionItem{
		OrderID:         d.OrderID,
		ID:              d.ID,
		ContestID:       d.ContestID,
		Currency:        d.Currency,
		TotalAmount:     d.TotalAmount.String(),
		CreatorAmount:   d.CreatorAmount.String(),
		VoterPoolAmount: d.VoterPoolAmount.String(),
		PlatformAmount:  d.PlatformAmount.String(),
		CreatorRatio:    d.CreatorRatio.String(),
		VoterRatio:      d.VoterRatio.String(),
		PlatformRatio:   d.PlatformRatio.String(),
		Status:          string(d.Status),
		FailureReason:   d.FailureReason,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (i distributionItem) toDistribution() (*Distribution, error) {
	fields := []string{i.TotalAmount, i.CreatorAmount, i.VoterPoolAmount, i.PlatformAmount, i.CreatorRatio, i.VoterRatio, i.PlatformRatio}
	parsed := make([]decimal.Decimal, len(fields))
	for n, f := range fields {
		v, err := decimal.NewFromString(f)
		if err != nil {
			return nil, fmt.Errorf("order %s: bad decimal %q: %w", i.OrderID, f, err)
		}
		parsed[n] = v
	}

	return &Distribution{
		ID:              i.ID,
		OrderID:         i.OrderID,
		ContestID:       i.ContestID,
		Currency:        i.Currency,
		TotalAmount:     parsed[0],
		CreatorAmount:   parsed[1],
		VoterPoolAmount: parsed[2],
		PlatformAmount:  parsed[3],
		CreatorRatio:    parsed[4],
		VoterRatio:      parsed[5],
		PlatformRatio:   parsed[6],
		Status:          DistributionStatus(i.Status),
		FailureReason:   i.FailureReason,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}, nil
}

func (s *DynamoDistributionStorage) Create(ctx context.Context, d *Distribution) error {
	item, err := attributevalue.MarshalMap(toDistributionItem(d))
	if err != nil {
		logging.Log.Errorf("DISTRIBUTION: failed to marshal distribution: %v", err)
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
			logging.Log.Warnf("DISTRIBUTION: order %s already has a distribution", d.OrderID)
			return ErrDistributionExists
		}
		logging.Log.Errorf("DISTRIBUTION: failed to create distribution: %v", err)
		return err
	}
	return nil
}

func (s *DynamoDistributionStorage) GetByOrder(ctx context.Context, orderID string) (*Distribution, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": orderID})
	if err != nil {
		logging.Log.Errorf("DISTRIBUTION: failed to marshal key for order %s: %v", orderID, err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.TableName,
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		logging.Log.Errorf("DISTRIBUTION: GetItem for order %s failed: %v", orderID, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var raw distributionItem
	if err := attributevalue.UnmarshalMap(out.Item, &raw); err != nil {
		logging.Log.Errorf("DISTRIBUTION: failed to unmarshal distribution: %v", err)
		return nil, err
	}
	return raw.toDistribution()
}

func (s *DynamoDistributionStorage) ListByContest(ctx context.Context, contestID string) ([]*Distribution, error) {
	return s.scan(ctx, "ContestID = :c", nil, map[string]types.AttributeValue{
		":c": &types.AttributeValueMemberS{Value: contestID},
	})
}

func (s *DynamoDistributionStorage) ListByStatus(ctx context.Context, statuses ...DistributionStatus) ([]*Distribution, error) {
	if len(statuses) == 0 {
		return []*Distribution{}, nil
	}
	placeholders, values := statusPlaceholders(":s", statuses)
	return s.scan(ctx, fmt.Sprintf("#s IN (%s)", strings.Join(placeholders, ", ")), map[string]string{"#s": "Status"}, values)
}

func (s *DynamoDistributionStorage) UpdateStatus(ctx context.Context, orderID string, from []DistributionStatus, to DistributionStatus, reason string) error {
	if len(from) == 0 {
		return ErrInvalidStatusTransition
	}
	placeholders, values := statusPlaceholders(":f", from)
	values[":to"] = &types.AttributeValueMemberS{Value: string(to)}
	values[":reason"] = &types.AttributeValueMemberS{Value: reason}
	values[":now"] = &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)}

	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:          aws.String("SET #s = :to, FailureReason = :reason, UpdatedAt = :now"),
		ConditionExpression:       aws.String(fmt.Sprintf("attribute_exists(PK) AND #s IN (%s)", strings.Join(placeholders, ", "))),
		ExpressionAttributeNames:  map[string]string{"#s": "Status"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			if _, getErr := s.GetByOrder(ctx, orderID); errors.Is(getErr, ErrNotFound) {
				return ErrNotFound
			}
			logging.Log.Warnf("DISTRIBUTION: rejected status change to %s for order %s", to, orderID)
			return ErrInvalidStatusTransition
		}
		logging.Log.Errorf("DISTRIBUTION: failed to update status for order %s: %v", orderID, err)
		return err
	}
	return nil
}

func (s *DynamoDistributionStorage) scan(ctx context.Context, filter string, names map[string]string, values map[string]types.AttributeValue) ([]*Distribution, error) {
	paginator := dynamodb.NewScanPaginator(s.Client, &dynamodb.ScanInput{
		TableName:                 &s.TableName,
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})

	out := make([]*Distribution, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logging.Log.Errorf("DISTRIBUTION: scan failed: %v", err)
			return nil, err
		}

		var raw []distributionItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &raw); err != nil {
			logging.Log.Errorf("DISTRIBUTION: failed to unmarshal list: %v", err)
			return nil, err
		}
		for _, r := range raw {
			d, err := r.toDistribution()
			if err != nil {
				logging.Log.Errorf("DISTRIBUTION: %v", err)
				return nil, err
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func statusPlaceholders(prefix string, statuses []DistributionStatus) ([]string, map[string]types.AttributeValue) {
	placeholders := make([]string, 0, len(statuses))
	values := make(map[string]types.AttributeValue, len(statuses)+3)
	for i, st := range statuses {
		p := fmt.Sprintf("%s%d", prefix, i)
		placeholders = append(placeholders, p)
		values[p] = &types.AttributeValueMemberS{Value: string(st)}
	}
	return placeholders, values
}
