package validation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// ObjectChecker verifies that the referenced image exists and is not empty.
type ObjectChecker struct {
	api s3iface.S3API
}

// NewObjectChecker wraps an S3 client.
func NewObjectChecker(api s3iface.S3API) *ObjectChecker {
	return &ObjectChecker{api: api}
}

// Check returns an empty reason when the object is usable.
func (c *ObjectChecker) Check(ctx context.Context, bucket, key string) string {
	out, err := c.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "S3 validation failed: Object does not exist"
		}
		return fmt.Sprintf("S3 validation failed: %v", err)
	}
	if aws.Int64Value(out.ContentLength) == 0 {
		return "S3 validation failed: Object has zero bytes"
	}
	return ""
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case "NotFound", "404", s3.ErrCodeNoSuchKey:
			return true
		}
	}
	return false
}
