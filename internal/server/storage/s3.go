package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Package-level seams so tests can run without an S3 endpoint.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (io.ReadCloser, error) {
		out, err := c.GetObject(ctx, in)
		if err != nil {
			return nil, err
		}
		return out.Body, nil
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Options configures an S3Store. BaseEndpoint targets MinIO or another
// S3-compatible server; path-style addressing is used whenever it is set.
type S3Options struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
}

type S3Store struct {
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
}

func NewS3Store(ctx context.Context, o S3Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(opts *s3.Options) {
		if o.BaseEndpoint != "" {
			opts.BaseEndpoint = aws.String(o.BaseEndpoint)
			opts.UsePathStyle = true
		}
	})

	return &S3Store{
		bucket:  o.Bucket,
		client:  client,
		presign: newS3PresignClient(client),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body []byte) error {
	err := putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := getObject(s.client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	err := deleteObject(s.client, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
