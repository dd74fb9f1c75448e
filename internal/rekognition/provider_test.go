package rekognition

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"

	"github.com/kozaktomas/face-reindex/internal/facematch"
	"github.com/kozaktomas/face-reindex/internal/logging"
)

type fakeRekognition struct {
	rekognitioniface.RekognitionAPI

	input  *rekognition.IndexFacesInput
	output *rekognition.IndexFacesOutput
	err    error
}

func (f *fakeRekognition) IndexFacesWithContext(ctx aws.Context, in *rekognition.IndexFacesInput, opts ...request.Option) (*rekognition.IndexFacesOutput, error) {
	f.input = in
	return f.output, f.err
}

func faceRecord(id string, left, top, width, height float64) *rekognition.FaceRecord {
	return &rekognition.FaceRecord{
		Face: &rekognition.Face{
			FaceId:  aws.String(id),
			ImageId: aws.String("img-" + id),
			BoundingBox: &rekognition.BoundingBox{
				Left:   aws.Float64(left),
				Top:    aws.Float64(top),
				Width:  aws.Float64(width),
				Height: aws.Float64(height),
			},
		},
	}
}

var testContext = facematch.RequestContext{
	Bucket:          "photos",
	Key:             "team.jpg",
	ExternalImageID: "team",
	CollectionID:    "employees",
}

func TestDetect_MapsFaceRecords(t *testing.T) {
	fake := &fakeRekognition{
		output: &rekognition.IndexFacesOutput{
			FaceRecords: []*rekognition.FaceRecord{
				faceRecord("f1", 0.1, 0.2, 0.3, 0.4),
				{Face: nil},
				faceRecord("f2", 0.5, 0.5, 0.1, 0.1),
			},
		},
	}
	p := New(fake, "AUTO", logging.Discard())

	faces, err := p.Detect(context.Background(), testContext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(faces))
	}
	want := facematch.DetectedFace{
		FaceID:      "f1",
		ImageID:     "img-f1",
		BoundingBox: facematch.BoundingBox{Left: 0.1, Top: 0.2, Width: 0.3, Height: 0.4},
	}
	if faces[0] != want {
		t.Errorf("faces[0] = %+v, want %+v", faces[0], want)
	}
	if faces[1].FaceID != "f2" {
		t.Errorf("faces[1].FaceID = %s, want f2", faces[1].FaceID)
	}
}

func TestDetect_BuildsInput(t *testing.T) {
	fake := &fakeRekognition{output: &rekognition.IndexFacesOutput{}}
	p := New(fake, "HIGH", logging.Discard())

	if _, err := p.Detect(context.Background(), testContext); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := fake.input
	if aws.StringValue(in.CollectionId) != "employees" {
		t.Errorf("CollectionId = %s", aws.StringValue(in.CollectionId))
	}
	if aws.StringValue(in.ExternalImageId) != "team" {
		t.Errorf("ExternalImageId = %s", aws.StringValue(in.ExternalImageId))
	}
	if aws.StringValue(in.Image.S3Object.Bucket) != "photos" || aws.StringValue(in.Image.S3Object.Name) != "team.jpg" {
		t.Errorf("unexpected S3 object %v", in.Image.S3Object)
	}
	if aws.StringValue(in.QualityFilter) != "HIGH" {
		t.Errorf("QualityFilter = %s, want HIGH", aws.StringValue(in.QualityFilter))
	}
	if in.MaxFaces != nil || len(in.DetectionAttributes) != 0 {
		t.Errorf("expected service defaults for MaxFaces and DetectionAttributes, got %v %v", in.MaxFaces, in.DetectionAttributes)
	}
}

func TestDetect_EmptyIsNotAnError(t *testing.T) {
	fake := &fakeRekognition{output: &rekognition.IndexFacesOutput{}}
	p := New(fake, "", logging.Discard())

	faces, err := p.Detect(context.Background(), testContext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no faces, got %d", len(faces))
	}
	if fake.input.QualityFilter != nil {
		t.Error("expected QualityFilter to be unset")
	}
}

func TestDetect_PropagatesError(t *testing.T) {
	cause := errors.New("AccessDeniedException")
	fake := &fakeRekognition{err: cause}
	p := New(fake, "AUTO", logging.Discard())

	faces, err := p.Detect(context.Background(), testContext)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if faces != nil {
		t.Errorf("expected nil faces on error, got %v", faces)
	}
}
