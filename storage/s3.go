package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"turing-review/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// NewS3Client erstellt einen S3-Client für Strato HiDrive.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.StratoS3URL,
				SigningRegion:     cfg.StratoS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.StratoS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.StratoS3Key, cfg.StratoS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// ArchiveManuscript legt eine Archivkopie des eingereichten Manuskripts
// im S3 ab und gibt den Link zurück. Der Objektschlüssel ist zeitlich
// sortierbar und kollisionsfrei.
func ArchiveManuscript(client *s3.Client, cfg *config.Config, paperID uint, content string) (string, error) {
	key := fmt.Sprintf("manuscripts/%s/paper-%d-%s.txt",
		time.Now().Format("2006/01"), paperID, uuid.NewString())
	contentType := "text/plain; charset=utf-8"
	_, err := client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      &cfg.StratoS3Bucket,
		Key:         &key,
		Body:        bytes.NewReader([]byte(content)),
		ContentType: &contentType,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", cfg.StratoS3URL, cfg.StratoS3Bucket, key), nil
}
