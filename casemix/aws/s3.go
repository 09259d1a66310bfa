package casemixaws

import (
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

const s3Scheme = "s3://"

// IsS3Uri reports whether path names an S3 object.
func IsS3Uri(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// Parses an S3 URI and returns the bucket and key.
//
// @example:
//
//	input: s3://my-bucket/path/to/file
//	output: "my-bucket", "path/to/file"
//
// @example
//
//	input: s3://my-bucket
//	output: "my-bucket", ""
func ParseS3Uri(str string) (bucket string, key string) {
	workingString := strings.TrimPrefix(str, s3Scheme)
	resultArr := strings.SplitN(workingString, "/", 2)

	if len(resultArr) == 1 {
		return resultArr[0], ""
	}

	return resultArr[0], resultArr[1]
}

// Downloader is the part of s3manager.Downloader used by DownloadObject.
type Downloader interface {
	Download(w io.WriterAt, input *s3.GetObjectInput, options ...func(*s3manager.Downloader)) (int64, error)
}

// NewDownloader returns an s3manager downloader for sess.
func NewDownloader(sess *session.Session) Downloader {
	return s3manager.NewDownloader(sess)
}

// DownloadObject reads the whole object at uri into memory.
func DownloadObject(d Downloader, uri string) ([]byte, error) {
	bucket, key := ParseS3Uri(uri)
	if bucket == "" || key == "" {
		return nil, errors.Errorf("invalid S3 object uri '%s'", uri)
	}

	buff := &aws.WriteAtBuffer{}
	if _, err := d.Download(buff, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to download bucket %s, key %s", bucket, key)
	}

	return buff.Bytes(), nil
}
