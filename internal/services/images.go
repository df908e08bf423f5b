package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	rc "github.com/dmitrijs2005/recipekeeper/internal/config"
	"github.com/dmitrijs2005/recipekeeper/internal/models"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignExpiry bounds the lifetime of upload and download URLs.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ImageService attaches images to recipes. Image bytes never pass through
// the service: callers upload to and download from presigned S3 URLs.
type ImageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *rc.Config
}

func NewImageService(db *sql.DB, m repomanager.RepositoryManager, cfg *rc.Config) *ImageService {
	return &ImageService{db: db, repomanager: m, config: cfg}
}

// ImageStorageKey returns a fresh object key keeping the lowercased
// extension of filename.
func ImageStorageKey(filename string) string {
	return fmt.Sprintf("uploads/recipe/%s%s", uuid.New(), strings.ToLower(filepath.Ext(filename)))
}

func (s *ImageService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		// MinIO and most self-hosted stores do not serve virtual-hosted buckets.
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// RequestUpload assigns a new storage key to the recipe, marks its image
// pending and returns the key with a presigned PUT URL. A previously
// uploaded image is replaced: its object stays in the bucket and is no
// longer served once the new key is recorded.
func (s *ImageService) RequestUpload(ctx context.Context, ownerID, recipeID, filename string) (string, string, error) {
	repo := s.repomanager.Recipes(s.db)
	if _, err := repo.GetByID(ctx, ownerID, recipeID); err != nil {
		return "", "", err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := ImageStorageKey(filename)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", "", err
	}

	if err := repo.SetImage(ctx, ownerID, recipeID, key, models.ImageStatusPending, now()); err != nil {
		return "", "", fmt.Errorf("error updating recipe image: %w", err)
	}

	return key, req.URL, nil
}

// MarkUploaded confirms that the pending image has been stored.
func (s *ImageService) MarkUploaded(ctx context.Context, ownerID, recipeID string) error {
	repo := s.repomanager.Recipes(s.db)
	r, err := repo.GetByID(ctx, ownerID, recipeID)
	if err != nil {
		return err
	}
	if r.ImageKey == "" {
		return fmt.Errorf("%w: recipe has no image upload", common.ErrorNotFound)
	}

	if err := repo.SetImage(ctx, ownerID, recipeID, r.ImageKey, models.ImageStatusUploaded, now()); err != nil {
		return fmt.Errorf("error updating recipe image: %w", err)
	}
	return nil
}

// DownloadURL returns a presigned GET URL for an uploaded image.
func (s *ImageService) DownloadURL(ctx context.Context, ownerID, recipeID string) (string, error) {
	r, err := s.repomanager.Recipes(s.db).GetByID(ctx, ownerID, recipeID)
	if err != nil {
		return "", err
	}
	if r.ImageStatus != models.ImageStatusUploaded {
		return "", fmt.Errorf("%w: recipe has no uploaded image", common.ErrorNotFound)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := r.ImageKey

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
