package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMParamStore はAWS Systems Manager Parameter Storeによる実装。
type SSMParamStore struct {
	client *ssm.Client
}

// NewSSMParamStore はSSMクライアントを初期化してSSMParamStoreを生成する。
// スロットリング等の一時的なエラーはSDK標準のリトライで吸収する。
func NewSSMParamStore(ctx context.Context, region string) (*SSMParamStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(3),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &SSMParamStore{client: ssm.NewFromConfig(cfg)}, nil
}

// Get は指定された名前のパラメータ値を取得する。
func (s *SSMParamStore) Get(ctx context.Context, name string, decrypt bool) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", ErrParameterNotFound
		}
		return "", fmt.Errorf("getting parameter %s: %w", name, err)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// Put はパラメータを書き込む。
func (s *SSMParamStore) Put(ctx context.Context, param Parameter, overwrite bool) error {
	paramType := types.ParameterTypeString
	if param.Secure {
		paramType = types.ParameterTypeSecureString
	}
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(param.Name),
		Value:     aws.String(param.Value),
		Type:      paramType,
		Overwrite: aws.Bool(overwrite),
	})
	if err != nil {
		var exists *types.ParameterAlreadyExists
		if errors.As(err, &exists) {
			return ErrParameterAlreadyExists
		}
		return fmt.Errorf("putting parameter %s: %w", param.Name, err)
	}
	return nil
}

// Delete は指定された名前のパラメータを削除する。
func (s *SSMParamStore) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return ErrParameterNotFound
		}
		return fmt.Errorf("deleting parameter %s: %w", name, err)
	}
	return nil
}

// ListNames は指定されたプレフィックス配下の全パラメータ名を返す。
// GetParametersByPathは末尾スラッシュなしの階層パスを要求する。
func (s *SSMParamStore) ListNames(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	paginator := ssm.NewGetParametersByPathPaginator(s.client, &ssm.GetParametersByPathInput{
		Path:      aws.String(strings.TrimSuffix(prefix, "/")),
		Recursive: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing parameters under %s: %w", prefix, err)
		}
		for _, p := range page.Parameters {
			names = append(names, aws.ToString(p.Name))
		}
	}
	return names, nil
}
