// Package rekognition adapts AWS Rekognition IndexFaces to facematch.DetectionProvider.
package rekognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-reindex/internal/facematch"
)

// Provider indexes the faces of an S3 image into a Rekognition collection.
type Provider struct {
	client        rekognitioniface.RekognitionAPI
	qualityFilter string
	log           logrus.FieldLogger
}

// New wraps an existing Rekognition client.
func New(client rekognitioniface.RekognitionAPI, qualityFilter string, log logrus.FieldLogger) *Provider {
	return &Provider{
		client:        client,
		qualityFilter: qualityFilter,
		log:           log,
	}
}

// NewFromSession creates a Rekognition client from sess.
func NewFromSession(sess *session.Session, qualityFilter string, log logrus.FieldLogger) *Provider {
	return New(rekognition.New(sess), qualityFilter, log)
}

// Detect calls IndexFaces for the submission's image and returns the indexed faces.
// Errors from Rekognition are returned as-is, wrapped with the image location.
func (p *Provider) Detect(ctx context.Context, rc facematch.RequestContext) ([]facematch.DetectedFace, error) {
	input := &rekognition.IndexFacesInput{
		CollectionId: aws.String(rc.CollectionID),
		Image: &rekognition.Image{
			S3Object: &rekognition.S3Object{
				Bucket: aws.String(rc.Bucket),
				Name:   aws.String(rc.Key),
			},
		},
		ExternalImageId: aws.String(rc.ExternalImageID),
	}
	if p.qualityFilter != "" {
		input.QualityFilter = aws.String(p.qualityFilter)
	}

	out, err := p.client.IndexFacesWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("indexing faces of s3://%s/%s into %s: %w", rc.Bucket, rc.Key, rc.CollectionID, err)
	}

	faces := make([]facematch.DetectedFace, 0, len(out.FaceRecords))
	for _, rec := range out.FaceRecords {
		if rec == nil || rec.Face == nil {
			continue
		}
		faces = append(faces, toDetectedFace(rec.Face))
	}

	if n := len(out.UnindexedFaces); n > 0 {
		p.log.WithFields(logrus.Fields{
			"external_image_id": rc.ExternalImageID,
			"unindexed":         n,
		}).Debug("Rekognition skipped faces below the quality filter")
	}
	return faces, nil
}

func toDetectedFace(f *rekognition.Face) facematch.DetectedFace {
	face := facematch.DetectedFace{
		FaceID:  aws.StringValue(f.FaceId),
		ImageID: aws.StringValue(f.ImageId),
	}
	if bb := f.BoundingBox; bb != nil {
		face.BoundingBox = facematch.BoundingBox{
			Left:   aws.Float64Value(bb.Left),
			Top:    aws.Float64Value(bb.Top),
			Width:  aws.Float64Value(bb.Width),
			Height: aws.Float64Value(bb.Height),
		}
	}
	return face
}
