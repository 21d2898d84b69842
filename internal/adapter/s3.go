package adapter

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3ObjectStorage struct {
	client        *s3.Client
	httpClient    *utils.HTTPClient
	publicBaseURL string

	logger *logger.Logger
}

// NewS3ObjectStorage constructs an S3-compatible implementation of
// [ObjectStorage] from cfg.
//
// Uploads go through the AWS SDK with static credentials and path-style
// addressing, which is what MinIO and most self-hosted gateways expect.
// Downloads are plain GET requests bounded by timeout.
//
// Returns an error if cfg.Endpoint is empty or the SDK configuration cannot
// be loaded.
func NewS3ObjectStorage(ctx context.Context, cfg config.Objects, timeout time.Duration, logger *logger.Logger, optFns ...func(*s3.Options)) (ObjectStorage, error) {
	endpoint, err := normalizeBaseURL(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid object storage endpoint: %w", err)
	}

	publicBaseURL := endpoint
	if cfg.PublicBaseURL != "" {
		if publicBaseURL, err = normalizeBaseURL(cfg.PublicBaseURL); err != nil {
			return nil, fmt.Errorf("invalid object storage public url: %w", err)
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("error loading object storage config: %w", err)
	}

	opts := append([]func(*s3.Options){func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}}, optFns...)

	return &s3ObjectStorage{
		client:        s3.NewFromConfig(awsCfg, opts...),
		httpClient:    utils.NewHTTPClient(utils.WithTimeout(timeout)),
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Upload implements [ObjectStorage].
func (s *s3ObjectStorage) Upload(ctx context.Context, obj Object) (string, error) {
	log := logger.FromContext(ctx)

	if obj.Bucket == "" || obj.Path == "" {
		return "", fmt.Errorf("%w: bucket and path are required", ErrInvalidObject)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(obj.Bucket),
		Key:           aws.String(obj.Path),
		Body:          bytes.NewReader(obj.Data),
		ContentLength: aws.Int64(int64(len(obj.Data))),
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		mapped := mapTransportError(err)
		log.Err(err).
			Str("func", "s3ObjectStorage.Upload").
			Str("bucket", obj.Bucket).
			Str("path", obj.Path).
			Msg("failed to put object")
		return "", mapped
	}

	return s.publicURL(obj.Bucket, obj.Path), nil
}

// Download implements [ObjectStorage].
func (s *s3ObjectStorage) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	log := logger.FromContext(ctx)

	resp, err := s.httpClient.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		log.Err(err).
			Str("func", "s3ObjectStorage.Download").
			Str("url", rawURL).
			Msg("request failed")
		return nil, "", mapTransportError(err)
	}

	if err := mapHTTPError(resp); err != nil {
		log.Err(err).
			Str("func", "s3ObjectStorage.Download").
			Str("url", rawURL).
			Int("status", resp.StatusCode()).
			Msg("unexpected response")
		return nil, "", err
	}

	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// publicURL builds "<publicBaseURL>/<bucket>/<path>" escaping each path
// segment.
func (s *s3ObjectStorage) publicURL(bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return s.publicBaseURL + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}
