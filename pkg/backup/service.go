package backup

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/robfig/cron/v3"

	"github.com/lumeo-studio/workspace-api/pkg/store"
)

// Service snapshots the workspace state document to local disk and,
// when a bucket is configured, to S3.
type Service struct {
	adapter        store.Adapter
	s3Client       *s3.Client
	bucket         string
	localBackupDir string
	retentionDays  int
	scheduler      *cron.Cron
}

// Config holds snapshot configuration
type Config struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string
	LocalBackupDir     string
	RetentionDays      int // Number of days to keep snapshots
}

// NewService creates a snapshot service over the given state adapter.
func NewService(adapter store.Adapter, cfg Config) (*Service, error) {
	if err := os.MkdirAll(cfg.LocalBackupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	svc := &Service{
		adapter:        adapter,
		bucket:         cfg.S3Bucket,
		localBackupDir: cfg.LocalBackupDir,
		retentionDays:  cfg.RetentionDays,
	}

	if cfg.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.AWSRegion),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AWSAccessKeyID,
				cfg.AWSSecretAccessKey,
				"",
			)),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		svc.s3Client = s3.NewFromConfig(awsCfg)
	}

	return svc, nil
}

// SnapshotResult contains snapshot operation results
type SnapshotResult struct {
	Filename     string
	FileSize     int64
	S3Key        string
	Version      int
	Duration     time.Duration
	UploadedToS3 bool
}

// CreateSnapshot writes a gzipped JSON copy of the current state document.
func (s *Service) CreateSnapshot(ctx context.Context) (*SnapshotResult, error) {
	start := time.Now()

	doc, err := s.adapter.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state document: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102-150405")
	filename := fmt.Sprintf("workspace-state-%s-v%d.json.gz", timestamp, doc.Version)
	localPath := filepath.Join(s.localBackupDir, filename)

	log.Printf("🔄 Starting state snapshot: %s", filename)

	file, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	if err := json.NewEncoder(gzipWriter).Encode(doc); err != nil {
		gzipWriter.Close()
		os.Remove(localPath)
		return nil, fmt.Errorf("failed to encode state document: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		os.Remove(localPath)
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot file: %w", err)
	}

	result := &SnapshotResult{
		Filename: filename,
		FileSize: fileInfo.Size(),
		S3Key:    fmt.Sprintf("snapshots/%s", filename),
		Version:  doc.Version,
		Duration: time.Since(start),
	}

	if s.s3Client != nil {
		if err := s.uploadToS3(ctx, localPath, result.S3Key); err != nil {
			return result, fmt.Errorf("snapshot created locally but S3 upload failed: %w", err)
		}
		result.UploadedToS3 = true
		log.Printf("✅ Snapshot uploaded to S3: s3://%s/%s", s.bucket, result.S3Key)

		if err := s.cleanupOldSnapshots(ctx); err != nil {
			log.Printf("⚠️  Failed to cleanup old snapshots: %v", err)
		}
	}

	s.cleanupLocalSnapshots()

	log.Printf("✅ Snapshot completed: %s (version: %d, size: %d bytes, duration: %s)",
		filename, result.Version, result.FileSize, result.Duration)

	return result, nil
}

// Schedule registers the snapshot job on a cron scheduler and starts it.
func (s *Service) Schedule(spec string) error {
	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := s.CreateSnapshot(ctx); err != nil {
			log.Printf("❌ Scheduled snapshot failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule snapshot job: %w", err)
	}

	s.scheduler.Start()
	log.Printf("✅ Snapshot scheduler started (spec: %q)", spec)
	return nil
}

// Stop stops the scheduler if one is running.
func (s *Service) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Service) uploadToS3(ctx context.Context, localPath, s3Key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(s3Key),
		Body:         file,
		StorageClass: types.StorageClassStandardIa,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

// cleanupOldSnapshots deletes S3 snapshots older than the retention period.
func (s *Service) cleanupOldSnapshots(ctx context.Context) error {
	if s.retentionDays <= 0 {
		return nil
	}

	cutoffDate := time.Now().UTC().AddDate(0, 0, -s.retentionDays)

	result, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("snapshots/"),
	})
	if err != nil {
		return fmt.Errorf("failed to list S3 objects: %w", err)
	}

	var deleted int
	for _, obj := range result.Contents {
		if obj.LastModified.Before(cutoffDate) {
			_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				log.Printf("⚠️  Failed to delete old snapshot %s: %v", *obj.Key, err)
				continue
			}
			deleted++
		}
	}

	if deleted > 0 {
		log.Printf("✅ Cleaned up %d old snapshots (retention: %d days)", deleted, s.retentionDays)
	}

	return nil
}

// cleanupLocalSnapshots applies the retention window to the local directory.
func (s *Service) cleanupLocalSnapshots() {
	if s.retentionDays <= 0 {
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)

	entries, err := os.ReadDir(s.localBackupDir)
	if err != nil {
		log.Printf("⚠️  Failed to read backup directory: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "workspace-state-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.localBackupDir, entry.Name()))
		}
	}
}

// ListSnapshots lists all snapshots stored in S3, newest first.
func (s *Service) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	if s.s3Client == nil {
		return nil, fmt.Errorf("S3 bucket not configured")
	}

	result, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("snapshots/"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 objects: %w", err)
	}

	snapshots := make([]SnapshotInfo, 0, len(result.Contents))
	for _, obj := range result.Contents {
		snapshots = append(snapshots, SnapshotInfo{
			Key:          *obj.Key,
			Size:         *obj.Size,
			LastModified: *obj.LastModified,
			Age:          time.Since(*obj.LastModified),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].LastModified.After(snapshots[j].LastModified)
	})

	return snapshots, nil
}

// SnapshotInfo contains information about a stored snapshot
type SnapshotInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	Age          time.Duration
}
