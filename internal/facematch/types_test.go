package facematch

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestMatchResult_MarshalNotReindexed(t *testing.T) {
	r := notReindexedRow(NewClaimedFace("user-1", "face-1", "image-1", BoundingBox{Left: 0.1, Top: 0.1, Width: 0.1, Height: 0.1}))

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)

	if !strings.Contains(s, `"BoundingBoxes":"Not reindexed"`) {
		t.Errorf("expected Not reindexed marker for BoundingBoxes, got %s", s)
	}
	if strings.Contains(s, "IsNewFace") {
		t.Errorf("expected IsNewFace to be omitted, got %s", s)
	}
	if !strings.Contains(s, `"UserID":"user-1"`) {
		t.Errorf("expected UserID key, got %s", s)
	}
}

func TestMatchResult_DecodeNotReindexed(t *testing.T) {
	body := `{"UserID":"u","OldFaceId":"of","OldImageId":"oi","FaceId":"Not reindexed","ImageId":"Not reindexed","BoundingBoxes":"Not reindexed"}`

	var r MatchResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Reindexed() {
		t.Error("expected row without bounding box")
	}
	if r.IsNewFace != nil {
		t.Error("expected IsNewFace to be nil")
	}
}

func TestMatchResult_DecodeUnknownMarker(t *testing.T) {
	var r MatchResult
	err := json.Unmarshal([]byte(`{"BoundingBoxes":"something else"}`), &r)
	if err == nil {
		t.Fatal("expected error for unknown marker")
	}
}

func TestSubmission_DecodeWireShape(t *testing.T) {
	body := `{
		"Bucket": "photos",
		"Key": "2024/party.jpg",
		"ExternalImageId": "party",
		"CollectionId": "employees",
		"Faces": [
			{"UserId": "u1", "FaceId": "f1", "ImageId": "i1",
			 "BoundingBoxes": {"Left": 0.1, "Top": 0.2, "Width": 0.3, "Height": 0.4}}
		]
	}`

	var sub Submission
	if err := json.Unmarshal([]byte(body), &sub); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := RequestContext{Bucket: "photos", Key: "2024/party.jpg", ExternalImageID: "party", CollectionID: "employees"}
	if sub.RequestContext != want {
		t.Errorf("RequestContext = %+v, want %+v", sub.RequestContext, want)
	}
	if len(sub.Faces) != 1 || sub.Faces[0].UserID != "u1" {
		t.Fatalf("unexpected faces: %+v", sub.Faces)
	}

	batch := NewResultBatch(sub.RequestContext, nil)
	if batch.Bucket != want.Bucket || batch.Key != want.Key || batch.ExternalImageID != want.ExternalImageID {
		t.Errorf("result batch lost request context: %+v", batch)
	}
}

func TestUndelivered(t *testing.T) {
	cause := errors.New("sink down")
	o := Undelivered([]MatchResult{{UserID: "u"}}, cause)

	if o.IsMatched() {
		t.Error("undelivered outcome must not count as matched")
	}
	if !o.Retryable() {
		t.Error("undelivered outcome should be retryable")
	}
	if o.Status != StatusUndelivered || len(o.Results) != 1 || o.Err != cause {
		t.Errorf("unexpected outcome: %+v", o)
	}
}

func TestRejectionError_ProviderFailureUnwrap(t *testing.T) {
	cause := errors.New("throttled")
	err := &RejectionError{Kind: ProviderFailure, ClaimIndex: -1, Err: cause}

	if !errors.Is(err, ErrProviderFailure) {
		t.Error("expected errors.Is(err, ErrProviderFailure)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is(err, cause)")
	}
	if !strings.Contains(err.Error(), "throttled") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}

	o := Rejected(err)
	if o.IsMatched() || !o.Retryable() || o.Kind != ProviderFailure {
		t.Errorf("unexpected outcome: %+v", o)
	}
}
