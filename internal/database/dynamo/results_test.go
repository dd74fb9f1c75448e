package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/kozaktomas/face-reindex/internal/database"
	"github.com/kozaktomas/face-reindex/internal/facematch"
	"github.com/kozaktomas/face-reindex/internal/logging"
)

type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI
	puts   []*dynamodb.PutItemInput
	putErr error
}

func (f *fakeDynamo) PutItemWithContext(ctx aws.Context, in *dynamodb.PutItemInput, opts ...request.Option) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

func testBatch(t *testing.T) facematch.ResultBatch {
	t.Helper()
	claims := []facematch.ClaimedFace{
		facematch.NewClaimedFace("alice", "f-a", "i-a", facematch.BoundingBox{Left: 0.1, Top: 0.1, Width: 0.2, Height: 0.2}),
		facematch.NewClaimedFace("bob", "f-b", "i-b", facematch.BoundingBox{Left: 0.6, Top: 0.6, Width: 0.2, Height: 0.2}),
	}
	detections := []facematch.DetectedFace{
		{FaceID: "new-1", ImageID: "img", BoundingBox: facematch.BoundingBox{Left: 0.1, Top: 0.1, Width: 0.2, Height: 0.2}},
	}
	results, err := facematch.DefaultEngine().Reconcile(claims, detections)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	rc := facematch.RequestContext{Bucket: "photos", Key: "party.jpg", ExternalImageID: "party", CollectionID: "staff"}
	return facematch.NewResultBatch(rc, results)
}

func TestNew_RequiresTable(t *testing.T) {
	if _, err := New(&fakeDynamo{}, "", logging.Discard()); err == nil {
		t.Error("expected error for empty table name")
	}
}

func TestSaveResults_ItemShape(t *testing.T) {
	fake := &fakeDynamo{}
	w, err := New(fake, "results", logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := w.SaveResults(context.Background(), testBatch(t)); err != nil {
		t.Fatalf("SaveResults: %v", err)
	}
	if len(fake.puts) != 2 {
		t.Fatalf("expected 2 PutItem calls, got %d", len(fake.puts))
	}

	matched := fake.puts[0]
	if aws.StringValue(matched.TableName) != "results" {
		t.Errorf("unexpected table %q", aws.StringValue(matched.TableName))
	}
	for _, key := range []string{"Bucket", "Key", "ExternalImageId", "UserID", "FaceId", "OldFaceId", "OldImageId", "ImageId", "BoundingBoxes", "ResultKey"} {
		if matched.Item[key] == nil || matched.Item[key].S == nil {
			t.Errorf("expected string attribute %s", key)
		}
	}
	if got := aws.StringValue(matched.Item["IsNewFace"].S); got != "False" {
		t.Errorf("IsNewFace = %q, want False", got)
	}
	if got := aws.StringValue(matched.Item["OldFaceId"].S); got != "f-a" {
		t.Errorf("OldFaceId = %q, want f-a", got)
	}

	skipped := fake.puts[1]
	if _, ok := skipped.Item["IsNewFace"]; ok {
		t.Error("expected IsNewFace to be omitted for a row that was not reindexed")
	}
	if got := aws.StringValue(skipped.Item["BoundingBoxes"].S); got != `"Not reindexed"` {
		t.Errorf("BoundingBoxes = %q", got)
	}
}

func TestItemFromRow_ResultKeyPerClaim(t *testing.T) {
	claims := []facematch.ClaimedFace{
		facematch.NewClaimedFace("carol", "f-c1", "i-c1", facematch.BoundingBox{Left: 0.1, Top: 0.1, Width: 0.1, Height: 0.1}),
		facematch.NewClaimedFace("carol", "f-c2", "i-c2", facematch.BoundingBox{Left: 0.4, Top: 0.4, Width: 0.1, Height: 0.1}),
	}
	detections := []facematch.DetectedFace{
		{FaceID: "far", ImageID: "img", BoundingBox: facematch.BoundingBox{Left: 0.8, Top: 0.8, Width: 0.1, Height: 0.1}},
	}
	results, err := facematch.DefaultEngine().Reconcile(claims, detections)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	rows, err := database.RowsFromBatch(facematch.NewResultBatch(facematch.RequestContext{ExternalImageID: "group"}, results))
	if err != nil {
		t.Fatalf("RowsFromBatch: %v", err)
	}

	a, b := ItemFromRow(rows[0]), ItemFromRow(rows[1])
	if a.FaceID != b.FaceID || a.UserID != b.UserID {
		t.Fatalf("expected rows sharing face and user, got %+v %+v", a, b)
	}
	if a.ResultKey == b.ResultKey {
		t.Errorf("same-user claims share ResultKey %q", a.ResultKey)
	}
	if a.ResultKey != "Not reindexed#carol#f-c1" {
		t.Errorf("ResultKey = %q", a.ResultKey)
	}
}

func TestSaveResults_PutError(t *testing.T) {
	fake := &fakeDynamo{putErr: errors.New("throughput exceeded")}
	w, _ := New(fake, "results", logging.Discard())

	err := w.SaveResults(context.Background(), testBatch(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, fake.putErr) {
		t.Errorf("expected wrapped put error, got %v", err)
	}
}
