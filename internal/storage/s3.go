// S3-совместимое хранилище фотографий допуска (Backblaze B2, PSCloud и аналоги).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/dlnn-tech/taxi-driver-app/internal/config"
)

// S3Storage — клиент бакета фотографий. Реализует permits.ObjectStorage.
type S3Storage struct {
	client        *s3.S3
	bucket        string
	publicBaseURL string
}

func NewS3Storage(cfg config.Storage) (*S3Storage, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		// B2 и прочие S3-совместимые сервисы требуют path-style адресацию.
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}
	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3Storage{
		client:        s3.New(sess),
		bucket:        cfg.Bucket,
		publicBaseURL: base,
	}, nil
}

// Upload кладёт файл под ключ permits/{driverRef}/{slot}/{uuid}{ext} с приватным ACL.
func (s *S3Storage) Upload(ctx context.Context, data []byte, originalName, mimeType, slot, driverRef string) (string, string, error) {
	ext := strings.ToLower(path.Ext(originalName))
	if ext == "" {
		ext = extFromMime(mimeType)
	}
	key := fmt.Sprintf("permits/%s/%s/%s%s", driverRef, slot, uuid.NewString(), ext)

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mimeType),
		ACL:           aws.String("private"),
	})
	if err != nil {
		return "", "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return key, s.publicBaseURL + "/" + key, nil
}

// Delete удаляет объект по ключу; отсутствие объекта ошибкой не считается.
func (s *S3Storage) Delete(ctx context.Context, objectKey string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", objectKey, err)
	}
	return nil
}

func extFromMime(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
