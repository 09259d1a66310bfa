package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	casemixaws "github.com/CMSgov/casemix-app/casemix/aws"
	"github.com/CMSgov/casemix-app/casemix/metrics"
)

// FileProcessor reads an input file fully into memory. The returned close func releases
// anything held for the file and is always safe to call.
type FileProcessor interface {
	Open(ctx context.Context, path string) (*bytes.Reader, func(), error)
}

// LocalFileProcessor reads inputs from the local filesystem.
type LocalFileProcessor struct {
	Logger logrus.FieldLogger
}

func (processor *LocalFileProcessor) Open(ctx context.Context, path string) (*bytes.Reader, func(), error) {
	close := metrics.NewChild(ctx, metrics.StageOpenLocalFile)
	defer close()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, noop, errors.Wrapf(err, "failed to read %s", path)
	}
	processor.Logger.WithFields(logrus.Fields{"path": path, "bytes": len(data)}).Info("Read local file")
	return bytes.NewReader(data), noop, nil
}

// S3FileProcessor downloads inputs named by s3:// URIs.
type S3FileProcessor struct {
	Logger logrus.FieldLogger
	// Optional S3 endpoint to use for connection.
	Endpoint string
	// Optional role to assume when connecting to S3.
	AssumeRoleArn string
	// Downloader overrides the session-backed downloader. Tests only.
	Downloader casemixaws.Downloader
}

func (processor *S3FileProcessor) Open(ctx context.Context, path string) (*bytes.Reader, func(), error) {
	close := metrics.NewChild(ctx, metrics.StageOpenS3File)
	defer close()

	d := processor.Downloader
	if d == nil {
		sess, err := casemixaws.NewSession(processor.AssumeRoleArn, processor.Endpoint)
		if err != nil {
			return nil, noop, errors.Wrap(err, "failed to create S3 session")
		}
		d = casemixaws.NewDownloader(sess)
	}

	data, err := casemixaws.DownloadObject(d, path)
	if err != nil {
		processor.Logger.Errorf("Failed to download %s: %s", path, err)
		return nil, noop, err
	}
	processor.Logger.WithFields(logrus.Fields{"path": path, "bytes": len(data)}).Info("Downloaded S3 object")
	return bytes.NewReader(data), noop, nil
}

// RoutingFileProcessor sends s3:// paths to S3 and everything else to Local.
type RoutingFileProcessor struct {
	Local FileProcessor
	S3    FileProcessor
}

func (processor *RoutingFileProcessor) Open(ctx context.Context, path string) (*bytes.Reader, func(), error) {
	if casemixaws.IsS3Uri(path) {
		if processor.S3 == nil {
			return nil, noop, errors.Errorf("no S3 file processor configured for %s", path)
		}
		return processor.S3.Open(ctx, path)
	}
	return processor.Local.Open(ctx, path)
}

// NewFileProcessor returns a processor reading local paths and s3:// URIs.
func NewFileProcessor(logger logrus.FieldLogger, endpoint, assumeRoleArn string) FileProcessor {
	return &RoutingFileProcessor{
		Local: &LocalFileProcessor{Logger: logger},
		S3:    &S3FileProcessor{Logger: logger, Endpoint: endpoint, AssumeRoleArn: assumeRoleArn},
	}
}

func noop() {}
