package s3

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
)

// Config holds what is needed to open a bucket.
// Empty credentials fall back to the SDK's default provider chain.
type Config struct {
	Bucket          string `errorTxt:"bucket" mandatory:"yes"`
	Region          string `errorTxt:"bucket region" mandatory:"yes"`
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Endpoint        string // overrides the AWS endpoint e.g. for localstack; implies path style addressing.
}

func NewBasicClient(cfg Config) (BasicClient, error) {
	awsConfig := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.AccessKeyID != "" { // if we were given static credentials...
		awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken))
	}
	if cfg.Endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "error creating AWS session")
	}
	api := s3.New(sess)
	return NewBasicClientWithAPI(cfg.Bucket, cfg.Prefix, api, s3manager.NewUploaderWithClient(api)), nil
}

func NewBasicClientWithAPI(bucket, prefix string, api s3iface.S3API, uploader s3manageriface.UploaderAPI) BasicClient {
	return &basicClient{
		bucket:   bucket,
		prefix:   prefix,
		api:      api,
		uploader: uploader,
	}
}

type basicClient struct {
	bucket   string
	prefix   string
	api      s3iface.S3API
	uploader s3manageriface.UploaderAPI
}

func (s *basicClient) List(ctx context.Context, key string) (keys []string, err error) {
	keys = make([]string, 0, 1000)
	lastKey := ""
	for {
		params := &s3.ListObjectsInput{
			Bucket:  aws.String(s.bucket),
			Marker:  aws.String(lastKey),
			MaxKeys: aws.Int64(1000),
			Prefix:  aws.String(s.getKeyWithPrefix(key)),
		}
		resp, err := s.api.ListObjectsWithContext(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, v := range resp.Contents {
			keys = append(keys, *v.Key)
		}
		if len(keys) > 0 {
			lastKey = keys[len(keys)-1]
		}
		if !aws.BoolValue(resp.IsTruncated) {
			break
		}
	}
	return
}

func (s *basicClient) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer res.Body.Close()
	return ioutil.ReadAll(res.Body)
}

// Upload uses the multipart upload manager so r can be any length.
func (s *basicClient) Upload(ctx context.Context, key string, r io.Reader, acl string) error {
	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
		Body:   r,
	}
	if acl != "" {
		input.ACL = aws.String(acl)
	}
	_, err := s.uploader.UploadWithContext(ctx, input)
	return err
}

func (s *basicClient) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
	})
	return err
}

func (s *basicClient) URL(key string) string {
	return fmt.Sprintf("s3://%v/%v", s.bucket, s.getKeyWithPrefix(key))
}

func (s *basicClient) getKeyWithPrefix(key string) string {
	if p := strings.Trim(s.prefix, "/"); p != "" {
		return p + "/" + key // ensure a single slash after prefix.
	}
	return key
}
