package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"herbalbot/internal/domain"
)

const (
	// maxScanPages bounds pagination against a misbehaving LastEvaluatedKey.
	maxScanPages = 1000
	// batchWriteLimit is the DynamoDB cap on requests per BatchWriteItem call.
	batchWriteLimit = 25
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Client reads the herb catalog from a DynamoDB table. Each item is one herb;
// the numeric "position" attribute fixes catalog order because Scan order is
// unspecified.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

type positionedHerb struct {
	position int
	herb     domain.Herb
}

// LoadHerbs scans the whole table and returns the validated catalog.
func (c *Client) LoadHerbs(ctx context.Context) ([]domain.Herb, error) {
	var (
		rows     []positionedHerb
		startKey map[string]types.AttributeValue
	)
	for page := 0; ; page++ {
		if page >= maxScanPages {
			return nil, fmt.Errorf("repository: LoadHerbs: exceeded %d scan pages", maxScanPages)
		}
		out, err := c.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(c.tableName),
			ExclusiveStartKey: startKey,
			ConsistentRead:    aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("repository: LoadHerbs scan: %w", err)
		}
		if out == nil {
			break
		}
		for _, item := range out.Items {
			row, err := itemToHerb(item)
			if err != nil {
				return nil, fmt.Errorf("repository: LoadHerbs unmarshal: %w", err)
			}
			rows = append(rows, row)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].position < rows[j].position })
	herbs := make([]domain.Herb, len(rows))
	for i, r := range rows {
		herbs[i] = r.herb
	}
	herbs, err := Validate(herbs)
	if err != nil {
		return nil, fmt.Errorf("repository: LoadHerbs: %w", err)
	}
	return herbs, nil
}

// PutHerbs writes a validated catalog to the table, keeping slice order in
// the position attribute. Used to seed the table from a local catalog.
func (c *Client) PutHerbs(ctx context.Context, herbs []domain.Herb) error {
	herbs, err := Validate(herbs)
	if err != nil {
		return fmt.Errorf("repository: PutHerbs: %w", err)
	}
	for start := 0; start < len(herbs); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(herbs))
		reqs := make([]types.WriteRequest, 0, end-start)
		for i := start; i < end; i++ {
			reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: HerbItem(i, herbs[i])}})
		}
		out, err := c.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{c.tableName: reqs},
		})
		if err != nil {
			return fmt.Errorf("repository: PutHerbs batch write: %w", err)
		}
		if out != nil && len(out.UnprocessedItems[c.tableName]) > 0 {
			return fmt.Errorf("repository: PutHerbs: %d items unprocessed", len(out.UnprocessedItems[c.tableName]))
		}
	}
	return nil
}

// HerbItem converts a herb into the attribute map LoadHerbs expects.
func HerbItem(position int, h domain.Herb) map[string]types.AttributeValue {
	uses := make([]types.AttributeValue, len(h.Uses))
	for i, u := range h.Uses {
		uses[i] = &types.AttributeValueMemberS{Value: u}
	}
	return map[string]types.AttributeValue{
		"position":   &types.AttributeValueMemberN{Value: strconv.Itoa(position)},
		"name":       &types.AttributeValueMemberS{Value: h.Name},
		"local_name": &types.AttributeValueMemberS{Value: h.LocalName},
		"uses":       &types.AttributeValueMemberL{Value: uses},
		"notes":      &types.AttributeValueMemberS{Value: h.Notes},
	}
}

// itemToHerb converts a DynamoDB attribute map to a herb and its position.
func itemToHerb(item map[string]types.AttributeValue) (positionedHerb, error) {
	position, err := intAttr(item, "position")
	if err != nil {
		return positionedHerb{}, err
	}
	name, err := strAttr(item, "name")
	if err != nil {
		return positionedHerb{}, err
	}
	uses, err := listAttr(item, "uses")
	if err != nil {
		return positionedHerb{}, err
	}
	localName, _ := strAttr(item, "local_name") // allow empty
	notes, _ := strAttr(item, "notes")          // allow empty

	return positionedHerb{
		position: position,
		herb: domain.Herb{
			Name:      name,
			LocalName: localName,
			Uses:      uses,
			Notes:     notes,
		},
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

// listAttr accepts either a list of strings or a string set.
func listAttr(item map[string]types.AttributeValue, key string) ([]string, error) {
	v, ok := item[key]
	if !ok {
		return nil, fmt.Errorf("repository: missing attribute %q", key)
	}
	switch tv := v.(type) {
	case *types.AttributeValueMemberSS:
		return append([]string(nil), tv.Value...), nil
	case *types.AttributeValueMemberL:
		out := make([]string, 0, len(tv.Value))
		for i, el := range tv.Value {
			s, ok := el.(*types.AttributeValueMemberS)
			if !ok {
				return nil, fmt.Errorf("repository: attribute %q element %d is not a string", key, i)
			}
			out = append(out, s.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("repository: attribute %q is not a string list", key)
	}
}
