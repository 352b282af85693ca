package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sethvargo/go-retry"

	"github.com/iudanet/confsync/internal/models"
)

// S3Config настройки S3 или S3-совместимого хранилища
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // Endpoint для S3-совместимых сервисов (MinIO и т.п.)
	// AccessKeyID и SecretAccessKey можно не задавать: тогда используются
	// переменные окружения AWS_* или профиль
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string // Prefix префикс всех ключей корня синхронизации
	UsePathStyle    bool
	MaxRetries      uint64
}

// S3API subset of the S3 client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store хранилище объектов в S3
type S3Store struct {
	client S3API
	config S3Config
}

// NewS3Store создает хранилище с клиентом из конфигурации AWS по умолчанию.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg), nil
}

// NewS3StoreWithClient создает хранилище с готовым клиентом.
func NewS3StoreWithClient(client S3API, cfg S3Config) *S3Store {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &S3Store{client: client, config: cfg}
}

func (s *S3Store) backoff() retry.Backoff {
	b := retry.NewExponential(100 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithJitterPercent(10, b)
	return retry.WithMaxRetries(s.config.MaxRetries, b)
}

// do повторяет вызов при временных ошибках S3
func (s *S3Store) do(ctx context.Context, f func(ctx context.Context) error) error {
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		err := f(ctx)
		if err != nil && isRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func isRetryable(err error) bool {
	if isNotFound(err) {
		return false
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		return status == http.StatusTooManyRequests || status >= 500
	}
	// сетевые ошибки без HTTP-ответа
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var notFound *s3types.NotFound
	return errors.As(err, &notFound)
}

// Get читает объект.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.do(ctx, func(ctx context.Context) error {
		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.config.Bucket),
			Key:    aws.String(s.config.Prefix + key),
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		data, err = io.ReadAll(resp.Body)
		return err
	})
	if isNotFound(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("S3 get object failed: %w", err)
	}
	return data, nil
}

// Put записывает объект.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.config.Bucket),
			Key:    aws.String(s.config.Prefix + key),
			Body:   bytes.NewReader(data),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("S3 put object failed: %w", err)
	}
	return nil
}

// Delete удаляет объект. В S3 удаление отсутствующего ключа успешно.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.config.Bucket),
			Key:    aws.String(s.config.Prefix + key),
		})
		return err
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("S3 delete object failed: %w", err)
	}
	return nil
}

// List возвращает ключи с префиксом относительно config.Prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(s.config.Prefix + prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("S3 list objects failed: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.config.Prefix))
		}
	}

	return keys, nil
}
