package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/users/internal/logging"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/timex"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config locates the archive bucket. An empty BaseEndpoint uses the AWS
// default resolver; a set one switches to path-style addressing (MinIO).
type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	Prefix       string
}

// S3Archiver buffers events and writes them as JSON Lines objects on Flush.
type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
	clock  timex.Clock
	logger logging.Logger

	mu  sync.Mutex
	buf []models.AuditEvent
}

func NewS3Archiver(ctx context.Context, cfg S3Config, clock timex.Clock, logger logging.Logger) (*S3Archiver, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Archiver(client, cfg.Bucket, cfg.Prefix, clock, logger), nil
}

func newS3Archiver(client objectPutter, bucket, prefix string, clock timex.Clock, logger logging.Logger) *S3Archiver {
	return &S3Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		clock:  clock,
		logger: logger.With("module", "audit_s3"),
	}
}

func (a *S3Archiver) Name() string { return "s3" }

// Publish only buffers; it never touches the network.
func (a *S3Archiver) Publish(_ context.Context, e models.AuditEvent) error {
	a.mu.Lock()
	a.buf = append(a.buf, e)
	a.mu.Unlock()
	return nil
}

// Pending returns the number of buffered events.
func (a *S3Archiver) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}

func (a *S3Archiver) objectKey(now time.Time) string {
	key := fmt.Sprintf("%s/%d-%s.jsonl", now.Format("2006/01/02"), now.UnixNano(), uuid.NewString())
	if a.prefix != "" {
		key = a.prefix + "/" + key
	}
	return key
}

// Flush uploads everything buffered so far as one object. On failure the
// events are put back in front of anything buffered meanwhile.
func (a *S3Archiver) Flush(ctx context.Context) error {
	a.mu.Lock()
	batch := a.buf
	a.buf = nil
	a.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for i := range batch {
		if err := enc.Encode(&batch[i]); err != nil {
			a.requeue(batch)
			return err
		}
	}

	key := a.objectKey(a.clock.Now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		a.requeue(batch)
		return fmt.Errorf("put %s: %w", key, err)
	}

	a.logger.Debug(ctx, "audit batch archived", "key", key, "events", len(batch))
	return nil
}

func (a *S3Archiver) requeue(batch []models.AuditEvent) {
	a.mu.Lock()
	a.buf = append(batch, a.buf...)
	a.mu.Unlock()
}

// Run flushes every interval until ctx is done, then flushes once more.
func (a *S3Archiver) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := a.Flush(context.WithoutCancel(ctx)); err != nil {
				a.logger.Error(ctx, "final audit flush failed", "error", err)
			}
			return
		case <-t.C:
			if err := a.Flush(ctx); err != nil {
				a.logger.Warn(ctx, "audit flush failed", "error", err)
			}
		}
	}
}
