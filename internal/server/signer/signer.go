// Package signer produces time-boxed, single-key signed authorizations for
// direct browser-to-bucket uploads using the storage backend's presigned
// POST policy format.
package signer

import (
	"context"
	"fmt"
	"time"

	"github.com/A1iAshoor/s3-relay/internal/common"
	"github.com/A1iAshoor/s3-relay/internal/server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPostObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignPostOptions)) (*s3.PresignedPostRequest, error) {
		return pc.PresignPostObject(ctx, in, optFns...)
	}
)

// Disposition selects how the stored object is served back by browsers.
type Disposition string

const (
	DispositionInline     Disposition = "inline"
	DispositionAttachment Disposition = "attachment"
)

// ParseDisposition validates a client-supplied disposition mode. An empty
// value defaults to inline.
func ParseDisposition(s string) (Disposition, error) {
	switch Disposition(s) {
	case "", DispositionInline:
		return DispositionInline, nil
	case DispositionAttachment:
		return DispositionAttachment, nil
	default:
		return "", fmt.Errorf("%w: unknown disposition %q", common.ErrInvalidRequest, s)
	}
}

// Config holds the long-lived service credentials and policy settings.
// It is constructed once at startup and never mutated.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	BaseEndpoint    string
	DefaultACL      string
	// Expiry is the validity window of each signed policy.
	Expiry time.Duration
}

// Signer signs upload policies. It is stateless and safe for concurrent use.
type Signer struct {
	cfg Config
}

// New validates the credential configuration and returns a Signer.
func New(cfg Config) (*Signer, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("%w: storage credentials are not configured", common.ErrSigning)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is not configured", common.ErrSigning)
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 15 * time.Minute
	}
	if cfg.DefaultACL == "" {
		cfg.DefaultACL = "private"
	}
	return &Signer{cfg: cfg}, nil
}

// Expiry returns the configured policy validity window.
func (s *Signer) Expiry() time.Duration {
	return s.cfg.Expiry
}

func (s *Signer) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKeyID,
			s.cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// Sign produces a policy scoped to exactly one object key, permitting only
// a POST whose content type starts with contentTypePrefix. The policy always
// carries the server-side-encryption directive.
func (s *Signer) Sign(ctx context.Context, key, contentTypePrefix string, disposition Disposition) (*models.SignedPolicy, error) {

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSigning, err)
	}

	// Fields the browser must submit verbatim; each needs a matching
	// policy condition or the backend rejects the form.
	extra := map[string]string{
		"acl":                          s.cfg.DefaultACL,
		"success_action_status":        "201",
		"x-amz-server-side-encryption": "AES256",
		"Content-Disposition":          string(disposition),
	}

	conditions := make([]interface{}, 0, len(extra)+1)
	conditions = append(conditions, []interface{}{"starts-with", "$Content-Type", contentTypePrefix})
	for k, v := range extra {
		conditions = append(conditions, map[string]string{k: v})
	}

	req, err := presignPostObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = s.cfg.Expiry
		o.Conditions = conditions
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSigning, err)
	}

	fields := make(map[string]string, len(req.Values)+len(extra))
	for k, v := range req.Values {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}

	return &models.SignedPolicy{URL: req.URL, Fields: fields}, nil
}
