package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store persists testcases as objects under a bucket prefix, for
// clusters that archive corpora centrally rather than per-rank on
// local disk.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store builds an S3Store using the default AWS credential chain
// for the given region.
func NewS3Store(ctx context.Context, region, bucket, prefix string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("corpus: load aws config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

func (s *S3Store) key(digest string) string {
	if s.prefix == "" {
		return digest
	}
	return s.prefix + "/" + digest
}

func (s *S3Store) Put(ctx context.Context, digest string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(digest)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("corpus: put %s: %w", digest, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, digest string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(digest)),
	})
	if err != nil {
		return nil, fmt.Errorf("corpus: get %s: %w", digest, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Store) List(ctx context.Context) ([]string, error) {
	var digests []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("corpus: list objects: %w", err)
		}
		for _, obj := range page.Contents {
			digests = append(digests, aws.ToString(obj.Key))
		}
	}
	return digests, nil
}
