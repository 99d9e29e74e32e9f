// Package s3bucket pulls slideshow images from an S3-compatible bucket.
package s3bucket

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"easel/internal/fileutil"
	"easel/internal/provider"
)

// imageSuffixes limits bucket listings to files a display can show.
var imageSuffixes = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {},
}

// ObjectAPI is the S3 surface the provider uses; satisfied by *s3.Client.
type ObjectAPI interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Provider downloads images from a bucket, optionally under a key prefix.
// MinIO and other S3-compatible stores work through the endpoint field.
type Provider struct {
	client ObjectAPI

	bucket       string
	region       string
	endpoint     string
	accessKey    string
	secretKey    string
	prefix       string
	skipExisting bool
}

// New constructs an unconfigured S3 provider.
func New() provider.Provider {
	return &Provider{}
}

// NewWithClient constructs an S3 provider around a fixed client.
func NewWithClient(client ObjectAPI) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Describe() provider.Descriptor {
	return provider.Descriptor{
		Name:        "s3",
		DisplayName: "S3 Bucket",
		Description: "Download images from an S3 or S3-compatible bucket",
		Fields: []provider.ConfigField{
			{Key: "bucket", Label: "Bucket", Type: provider.FieldText, Required: true},
			{Key: "region", Label: "Region", Type: provider.FieldText, Required: true},
			{Key: "endpoint", Label: "Endpoint URL", Type: provider.FieldText},
			{Key: "access_key_id", Label: "Access Key ID", Type: provider.FieldText},
			{Key: "secret_access_key", Label: "Secret Access Key", Type: provider.FieldPassword},
			{Key: "prefix", Label: "Key Prefix", Type: provider.FieldText},
			{Key: "skip_existing", Label: "Skip Existing Files", Type: provider.FieldBoolean},
		},
	}
}

func (p *Provider) Configure(settings map[string]string) {
	p.bucket = strings.TrimSpace(settings["bucket"])
	p.region = strings.TrimSpace(settings["region"])
	p.endpoint = strings.TrimRight(strings.TrimSpace(settings["endpoint"]), "/")
	p.accessKey = strings.TrimSpace(settings["access_key_id"])
	p.secretKey = strings.TrimSpace(settings["secret_access_key"])
	p.prefix = strings.TrimLeft(strings.TrimSpace(settings["prefix"]), "/")
	p.skipExisting = true
	if raw, ok := settings["skip_existing"]; ok {
		if parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw))); err == nil {
			p.skipExisting = parsed
		}
	}
}

func (p *Provider) ValidateConfig() error {
	if p.bucket == "" {
		return fmt.Errorf("%w: bucket is required", provider.ErrConfigInvalid)
	}
	if p.region == "" {
		return fmt.Errorf("%w: region is required", provider.ErrConfigInvalid)
	}
	if (p.accessKey == "") != (p.secretKey == "") {
		return fmt.Errorf("%w: access_key_id and secret_access_key must be set together", provider.ErrConfigInvalid)
	}
	if p.endpoint != "" && !strings.HasPrefix(p.endpoint, "http://") && !strings.HasPrefix(p.endpoint, "https://") {
		return fmt.Errorf("%w: endpoint must start with http:// or https://", provider.ErrConfigInvalid)
	}
	return nil
}

// api returns the injected client or builds one from the configuration.
// With no static keys the ambient AWS credential chain applies.
func (p *Provider) api(ctx context.Context) (ObjectAPI, error) {
	if p.client != nil {
		return p.client, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(p.region),
	}
	if p.accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(p.accessKey, p.secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if p.endpoint != "" {
		endpoint := p.endpoint
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(cfg, s3opts...), nil
}

func (p *Provider) TestConnection(ctx context.Context) (bool, string) {
	if err := p.ValidateConfig(); err != nil {
		return false, fmt.Sprintf("configuration error: %v", err)
	}
	client, err := p.api(ctx)
	if err != nil {
		return false, fmt.Sprintf("connection failed: %v", err)
	}
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)}); err != nil {
		if provider.IsTimeout(err) {
			return false, "connection timed out"
		}
		return false, fmt.Sprintf("bucket check failed: %v", err)
	}
	return true, fmt.Sprintf("bucket %s is reachable", p.bucket)
}

func (p *Provider) Refresh(ctx context.Context, targetFolder string) provider.Outcome {
	if err := p.ValidateConfig(); err != nil {
		return provider.Failure("configuration error: %v", err)
	}
	client, err := p.api(ctx)
	if err != nil {
		return provider.Failure("connection failed: %v", err)
	}

	keys, err := p.listImageKeys(ctx, client)
	if err != nil {
		return provider.Failure("failed to list bucket: %v", err)
	}

	var downloaded, skipped, failed int
	var errs []string
	for _, key := range keys {
		filename := fileutil.SafeName(path.Base(key))
		if filename == "" {
			continue
		}
		target := filepath.Join(targetFolder, filename)

		if p.skipExisting && fileutil.Exists(target) {
			skipped++
			continue
		}
		if err := p.download(ctx, client, key, target); err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("download %s: %v", key, err))
			continue
		}
		downloaded++
	}
	return provider.Summarize(downloaded, skipped, failed, len(keys), errs)
}

func (p *Provider) listImageKeys(ctx context.Context, client ObjectAPI) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(p.bucket)}
	if p.prefix != "" {
		input.Prefix = aws.String(p.prefix)
	}

	var keys []string
	for {
		page, err := client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if IsImageKey(key) {
				keys = append(keys, key)
			}
		}
		if page.NextContinuationToken == nil {
			return keys, nil
		}
		input.ContinuationToken = page.NextContinuationToken
	}
}

func (p *Provider) download(ctx context.Context, client ObjectAPI, key, target string) error {
	object, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer object.Body.Close()
	return fileutil.WriteAtomic(target, object.Body)
}

// IsImageKey reports whether an object key carries a displayable image suffix.
func IsImageKey(key string) bool {
	if strings.HasSuffix(key, "/") {
		return false
	}
	_, ok := imageSuffixes[strings.ToLower(path.Ext(key))]
	return ok
}
