// Package dynamo persists reconciled rows to a DynamoDB table.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/kozaktomas/face-reindex/internal/database"
	"github.com/kozaktomas/face-reindex/internal/facematch"
	"github.com/sirupsen/logrus"
)

// Item is the table item written for each face.
type Item struct {
	Bucket          string  `dynamodbav:"Bucket"`
	Key             string  `dynamodbav:"Key"`
	ExternalImageID string  `dynamodbav:"ExternalImageId"`
	UserID          string  `dynamodbav:"UserID"`
	FaceID          string  `dynamodbav:"FaceId"`
	OldFaceID       string  `dynamodbav:"OldFaceId"`
	OldImageID      string  `dynamodbav:"OldImageId"`
	ImageID         string  `dynamodbav:"ImageId"`
	BoundingBoxes   string  `dynamodbav:"BoundingBoxes"`
	IsNewFace       *string `dynamodbav:"IsNewFace,omitempty"`
	// ResultKey is unique per row within an image; use it as the table sort key.
	ResultKey string `dynamodbav:"ResultKey"`
}

// ResultKey joins the row's detected face, user and claimed face ids.
func ResultKey(row database.StoredResult) string {
	return row.FaceID + "#" + row.UserID + "#" + row.OldFaceID
}

// ItemFromRow converts a stored row to its table item. IsNewFace is written as
// "True" or "False" and omitted for rows that were not reindexed.
func ItemFromRow(row database.StoredResult) Item {
	item := Item{
		Bucket:          row.Bucket,
		Key:             row.Key,
		ExternalImageID: row.ExternalImageID,
		UserID:          row.UserID,
		FaceID:          row.FaceID,
		OldFaceID:       row.OldFaceID,
		OldImageID:      row.OldImageID,
		ImageID:         row.ImageID,
		BoundingBoxes:   row.BoundingBoxes,
		ResultKey:       ResultKey(row),
	}
	if row.IsNewFace != nil {
		s := "False"
		if *row.IsNewFace {
			s = "True"
		}
		item.IsNewFace = &s
	}
	return item
}

// ResultWriter writes result batches with one PutItem per face.
type ResultWriter struct {
	client dynamodbiface.DynamoDBAPI
	table  string
	log    logrus.FieldLogger
}

// New returns a writer for the given table.
func New(client dynamodbiface.DynamoDBAPI, table string, log logrus.FieldLogger) (*ResultWriter, error) {
	if table == "" {
		return nil, errors.New("DynamoDB table name is required")
	}
	return &ResultWriter{client: client, table: table, log: log}, nil
}

// Initialize registers a DynamoDB writer as the active result backend.
// DynamoDB is write-only here, so no reader is registered.
func Initialize(sess *session.Session, table string, log logrus.FieldLogger) error {
	w, err := New(dynamodb.New(sess), table, log)
	if err != nil {
		return err
	}
	database.RegisterResultBackend("dynamo", nil, func() database.ResultWriter { return w })
	return nil
}

// SaveResults puts every face of the batch. It stops at the first failure.
func (w *ResultWriter) SaveResults(ctx context.Context, batch facematch.ResultBatch) error {
	rows, err := database.RowsFromBatch(batch)
	if err != nil {
		return err
	}
	for _, row := range rows {
		av, err := dynamodbattribute.MarshalMap(ItemFromRow(row))
		if err != nil {
			return fmt.Errorf("marshal item for face %s: %w", row.FaceID, err)
		}
		_, err = w.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(w.table),
			Item:      av,
		})
		if err != nil {
			return fmt.Errorf("put item for face %s into %s: %w", row.FaceID, w.table, err)
		}
		w.log.WithFields(logrus.Fields{
			"external_image_id": row.ExternalImageID,
			"user_id":           row.UserID,
			"face_id":           row.FaceID,
		}).Debug("stored result")
	}
	return nil
}
