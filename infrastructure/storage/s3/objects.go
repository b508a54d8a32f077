// Package s3 backs attachment storage with an S3 bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	apperrors "chatapi/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// PresignAPI is the subset of the presign client used for signed URLs.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// GetObjectAPI reads object bodies.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// ObjectStore implements ports.ObjectStore.
type ObjectStore struct {
	bucket    string
	presigner PresignAPI
	client    GetObjectAPI
}

// NewObjectStore wraps an S3 client and its presign client for bucket.
func NewObjectStore(client *awss3.Client, bucket string) *ObjectStore {
	return NewObjectStoreWith(awss3.NewPresignClient(client), client, bucket)
}

// NewObjectStoreWith is NewObjectStore over explicit interfaces.
func NewObjectStoreWith(presigner PresignAPI, client GetObjectAPI, bucket string) *ObjectStore {
	return &ObjectStore{bucket: bucket, presigner: presigner, client: client}
}

func (o *ObjectStore) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	input := &awss3.PutObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := o.presigner.PresignPutObject(ctx, input, awss3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return req.URL, nil
}

func (o *ObjectStore) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := o.presigner.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, nil
}

// GetContent reads the whole object. A missing key is NotFound.
func (o *ObjectStore) GetContent(ctx context.Context, key string) ([]byte, error) {
	out, err := o.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, apperrors.NewNotFoundError("file")
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}
