package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/shopspring/decimal"
)

type VoteStorage interface {
	// Create stores the vote and increments the meme's VoteCount in one
	// transaction. Returns ErrDuplicateVote when the voter already voted for
	// the meme and ErrNotFound when the meme does not exist.
	Create(ctx context.Context, vote *Vote) error
	ListByContest(ctx context.Context, contestID string) ([]*Vote, error)
	ListByMeme(ctx context.Context, memeID string) ([]*Vote, error)
}

// DynamoVoteStorage keys votes by PK=MemeID, SK=VoterWallet so the key itself
// is the uniqueness constraint.
type DynamoVoteStorage struct {
	Client         *dynamodb.Client
	TableName      string
	MemesTableName string
}

type voteItem struct {
	MemeID      string    `dynamodbav:"PK"`
	VoterWallet string    `dynamodbav:"SK"`
	ID          string    `dynamodbav:"ID"`
	ContestID   string    `dynamodbav:"ContestID"`
	Amount      string    `dynamodbav:"Amount"`
	CreatedAt   time.Time `dynamodbav:"CreatedAt"`
}

func toVoteItem(v *Vote) voteItem {
	return voteItem{
		MemeID:      v.MemeID,
		VoterWallet: v.VoterWallet,
		ID:          v.ID,
		ContestID:   v.ContestID,
		Amount:      v.Amount.String(),
		CreatedAt:   v.CreatedAt,
	}
}

func (i voteItem) toVote() (*Vote, error) {
	amount, err := decimal.NewFromString(i.Amount)
	if err != nil {
		return nil, err
	}
	return &Vote{
		ID:          i.ID,
		MemeID:      i.MemeID,
		VoterWallet: i.VoterWallet,
		ContestID:   i.ContestID,
		Amount:      amount,
		CreatedAt:   i.CreatedAt,
	}, nil
}

func (s *DynamoVoteStorage) Create(ctx context.Context, vote *Vote) error {
	item, err := attributevalue.MarshalMap(toVoteItem(vote))
	if err != nil {
		logging.Log.Errorf("VOTE: failed to marshal vote: %v", err)
		return err
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(s.TableName),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
				},
			},
			{
				Update: &types.Update{
					TableName: aws.String(s.MemesTableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: vote.MemeID},
					},
					UpdateExpression:    aws.String("ADD VoteCount :one"),
					ConditionExpression: aws.String("attribute_exists(PK)"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":one": &types.AttributeValueMemberN{Value: "1"},
					},
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			reasons := tce.CancellationReasons
			if len(reasons) > 0 && aws.ToString(reasons[0].Code) == "ConditionalCheckFailed" {
				logging.Log.Warnf("VOTE: duplicate vote by %s on meme %s", vote.VoterWallet, vote.MemeID)
				return ErrDuplicateVote
			}
			if len(reasons) > 1 && aws.ToString(reasons[1].Code) == "ConditionalCheckFailed" {
				return ErrNotFound
			}
		}
		logging.Log.Errorf("VOTE: failed to create vote: %v", err)
		return err
	}
	return nil
}

func (s *DynamoVoteStorage) ListByContest(ctx context.Context, contestID string) ([]*Vote, error) {
	paginator := dynamodb.NewScanPaginator(s.Client, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("ContestID = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: contestID},
		},
	})

	votes := make([]*Vote, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logging.Log.Errorf("VOTE: scan for contest %s failed: %v", contestID, err)
			return nil, err
		}
		batch, err := unmarshalVotes(page.Items)
		if err != nil {
			return nil, err
		}
		votes = append(votes, batch...)
	}
	return votes, nil
}

func (s *DynamoVoteStorage) ListByMeme(ctx context.Context, memeID string) ([]*Vote, error) {
	paginator := dynamodb.NewQueryPaginator(s.Client, &dynamodb.QueryInput{
		TableName:              &s.TableName,
		KeyConditionExpression: aws.String("PK = :meme"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":meme": &types.AttributeValueMemberS{Value: memeID},
		},
	})

	votes := make([]*Vote, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logging.Log.Errorf("VOTE: failed to query votes for meme %s: %v", memeID, err)
			return nil, err
		}
		batch, err := unmarshalVotes(page.Items)
		if err != nil {
			return nil, err
		}
		votes = append(votes, batch...)
	}
	return votes, nil
}

func unmarshalVotes(items []map[string]types.AttributeValue) ([]*Vote, error) {
	var raw []voteItem
	if err := attributevalue.UnmarshalListOfMaps(items, &raw); err != nil {
		logging.Log.Errorf("VOTE: failed to unmarshal vote list: %v", err)
		return nil, err
	}

	votes := make([]*Vote, 0, len(raw))
	for _, r := range raw {
		v, err := r.toVote()
		if err != nil {
			logging.Log.Errorf("VOTE: bad amount %q on vote %s: %v", r.Amount, r.ID, err)
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, nil
}
