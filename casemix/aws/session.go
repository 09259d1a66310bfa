package casemixaws

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
)

const s3Region = "us-east-1"

// Makes these easily mockable for testing
var newSession = session.NewSession

// NewSession returns an AWS session, optionally pointed at a custom endpoint (e.g. localstack)
// and assuming roleArn.
func NewSession(roleArn, endpoint string) (*session.Session, error) {
	config := aws.Config{
		Region: aws.String(s3Region),
	}

	if endpoint != "" {
		config.S3ForcePathStyle = aws.Bool(true)
		config.Endpoint = aws.String(endpoint)
	}

	if roleArn != "" {
		base, err := newSession()
		if err != nil {
			return nil, err
		}
		config.Credentials = stscreds.NewCredentials(base, roleArn)
	}

	return newSession(&config)
}
