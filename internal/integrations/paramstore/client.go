package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"herbalbot/internal/domain"
	"herbalbot/internal/repository"
)

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter is the interface that wraps GetParameter.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client wraps an AWS SSM API for parameter retrieval.
type Client struct {
	api ssmAPI
}

func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetParameter returns the decrypted value of name. HerbSource uses it to
// read the catalog document, which may be stored as a SecureString.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("paramstore: parameter missing value")
	}
	return *out.Parameter.Value, nil
}

// HerbSource loads the herb catalog from a parameter holding the same JSON
// document as the bundled herbs.json.
type HerbSource struct {
	params Getter
	name   string
}

func NewHerbSource(params Getter, name string) (*HerbSource, error) {
	if params == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("paramstore: parameter name must not be empty")
	}
	return &HerbSource{params: params, name: name}, nil
}

func (s *HerbSource) LoadHerbs(ctx context.Context) ([]domain.Herb, error) {
	raw, err := s.params.GetParameter(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("paramstore: load herbs: %w", err)
	}
	herbs, err := repository.DecodeHerbs([]byte(strings.TrimSpace(raw)), repository.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("paramstore: parameter %q: %w", s.name, err)
	}
	return herbs, nil
}
