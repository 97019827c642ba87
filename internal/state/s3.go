package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/terralite-io/terralite/internal/ir"
)

// S3Store persists the state document in an S3 object, with optional
// DynamoDB-based run locking.
type S3Store struct {
	bucket        string
	key           string
	region        string
	dynamoDBTable string
	encrypt       bool
	profile       string
	cipher        *stateCipher

	s3Client *s3.Client
	dbClient *dynamodb.Client
	lockID   string

	mu sync.Mutex
}

// NewS3Store builds an S3-backed store from backend configuration.
func NewS3Store(config map[string]string) (*S3Store, error) {
	bucket := config["bucket"]
	if bucket == "" {
		return nil, fmt.Errorf("s3 backend requires 'bucket' configuration")
	}

	key := config["key"]
	if key == "" {
		key = "terralite/state.json"
	}

	region := config["region"]
	if region == "" {
		region = "us-east-1"
	}

	b := &S3Store{
		bucket:        bucket,
		key:           key,
		region:        region,
		dynamoDBTable: config["dynamodb_table"],
		encrypt:       config["encrypt"] == "true",
		profile:       config["profile"],
		// Client-side encryption, on top of any server-side SSE.
		cipher: newStateCipher(config["encryption_key"]),
	}

	if err := b.initClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize S3 backend: %w", err)
	}

	return b, nil
}

func (b *S3Store) initClients() error {
	ctx := context.Background()

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(b.region))
	if b.profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(b.profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("unable to load AWS config: %w", err)
	}

	b.s3Client = s3.NewFromConfig(cfg)

	if b.dynamoDBTable != "" {
		b.dbClient = dynamodb.NewFromConfig(cfg)
	}

	return nil
}

func (b *S3Store) load(ctx context.Context) (*ir.State, error) {
	result, err := b.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) || strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			s := ir.NewState()
			s.Lineage = uuid.NewString()
			return s, nil
		}
		return nil, &StateUnavailableError{Op: "read", Cause: fmt.Errorf("s3://%s/%s: %w", b.bucket, b.key, err)}
	}
	defer result.Body.Close()

	raw, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &StateUnavailableError{Op: "read", Cause: err}
	}

	s, err := decodeState(raw, b.cipher)
	if err != nil {
		return nil, &StateUnavailableError{Op: "read", Cause: err}
	}
	return s, nil
}

func (b *S3Store) flush(ctx context.Context, s *ir.State) error {
	raw, err := encodeState(s, b.cipher)
	if err != nil {
		return &StateUnavailableError{Op: "write", Cause: err}
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Body:   bytes.NewReader(raw),
	}
	if b.encrypt {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := b.s3Client.PutObject(ctx, input); err != nil {
		return &StateUnavailableError{Op: "write", Cause: fmt.Errorf("s3://%s/%s: %w", b.bucket, b.key, err)}
	}
	return nil
}

func (b *S3Store) Get(ctx context.Context, addr string) (*ir.ResourceRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	rec := s.Find(addr)
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrAddressNotFound, addr)
	}
	return rec.Clone(), nil
}

func (b *S3Store) Put(ctx context.Context, addr string, rec *ir.ResourceRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.load(ctx)
	if err != nil {
		return err
	}
	clone := rec.Clone()
	clone.Address = addr
	s.Upsert(clone)
	s.Serial++
	return b.flush(ctx, s)
}

func (b *S3Store) Remove(ctx context.Context, addr string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.load(ctx)
	if err != nil {
		return err
	}
	if !s.Remove(addr) {
		return nil
	}
	s.Serial++
	return b.flush(ctx, s)
}

func (b *S3Store) List(ctx context.Context) ([]*ir.ResourceRecord, error) {
	s, err := b.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	recs := make([]*ir.ResourceRecord, len(s.Resources))
	copy(recs, s.Resources)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Address < recs[j].Address })
	return recs, nil
}

func (b *S3Store) Snapshot(ctx context.Context) (*ir.State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx)
}

func (b *S3Store) WriteSnapshot(ctx context.Context, s *ir.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := b.load(ctx)
	if err != nil {
		return err
	}
	if current.Serial != s.Serial {
		return &StateConflictError{Expected: s.Serial, Found: current.Serial}
	}
	doc := s.Clone()
	doc.Serial++
	if doc.Lineage == "" {
		doc.Lineage = current.Lineage
	}
	return b.flush(ctx, doc)
}

// Lock acquires a DynamoDB conditional-put lock when a lock table is
// configured. Without one, S3 runs are unlocked.
func (b *S3Store) Lock() error {
	if b.dynamoDBTable == "" {
		return nil
	}

	b.lockID = fmt.Sprintf("terralite-%d-%d", os.Getpid(), time.Now().UnixNano())

	_, err := b.dbClient.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(b.dynamoDBTable),
		Item: map[string]dbtypes.AttributeValue{
			"LockID":  &dbtypes.AttributeValueMemberS{Value: b.key},
			"Info":    &dbtypes.AttributeValueMemberS{Value: b.lockID},
			"Created": &dbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(LockID)"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "ConditionalCheckFailedException") {
			return fmt.Errorf("state is locked by another process. If this is an error, "+
				"manually delete the lock item with LockID=%q from DynamoDB table %q", b.key, b.dynamoDBTable)
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	return nil
}

func (b *S3Store) Unlock() error {
	if b.dynamoDBTable == "" {
		return nil
	}

	_, err := b.dbClient.DeleteItem(context.Background(), &dynamodb.DeleteItemInput{
		TableName: aws.String(b.dynamoDBTable),
		Key: map[string]dbtypes.AttributeValue{
			"LockID": &dbtypes.AttributeValueMemberS{Value: b.key},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	return nil
}
