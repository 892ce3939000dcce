package kinesis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/example/device-portal/internal/infrastructure/store"
)

// ConvertFromKinesisRecord decodes one Kinesis record into a store.Event.
// The DynamoDB→Kinesis integration ships records in DynamoDB Streams format,
// so the payload is a stream record, not the event itself. Returns (nil, nil)
// for non-INSERT records; only inserts carry new portal events.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*store.Event, error) {
	var streamRecord events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &streamRecord); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}
	return ConvertFromDynamoDBStreamRecord(streamRecord)
}

// ConvertFromDynamoDBStreamRecord decodes a DynamoDB Streams record directly,
// for consumers wired to the stream without the Kinesis hop.
func ConvertFromDynamoDBStreamRecord(record events.DynamoDBEventRecord) (*store.Event, error) {
	if record.EventName != "INSERT" {
		return nil, nil
	}

	image := record.Change.NewImage
	if image == nil {
		return nil, fmt.Errorf("DynamoDB image is nil")
	}

	event := &store.Event{}
	if v, ok := image["id"]; ok {
		event.ID = v.String()
	}
	if v, ok := image["aggregate_id"]; ok {
		event.AggregateID = v.String()
	}
	if v, ok := image["aggregate_type"]; ok {
		event.AggregateType = v.String()
	}
	if v, ok := image["event_type"]; ok {
		event.EventType = v.String()
	}
	if v, ok := image["data"]; ok {
		event.Data = json.RawMessage(v.String())
	}
	if v, ok := image["created_at"]; ok {
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		event.Timestamp = t
	}
	if v, ok := image["version"]; ok {
		version, err := v.Integer()
		if err != nil {
			return nil, fmt.Errorf("failed to parse version: %w", err)
		}
		event.Version = int(version)
	}

	if event.ID == "" || event.AggregateID == "" || event.EventType == "" {
		return nil, fmt.Errorf("missing required fields: id=%s, aggregate_id=%s, event_type=%s",
			event.ID, event.AggregateID, event.EventType)
	}
	return event, nil
}

// BatchConvertFromKinesisEvent converts every record in a Kinesis event,
// collecting per-record errors instead of aborting the batch.
func BatchConvertFromKinesisEvent(kinesisEvent events.KinesisEvent) ([]*store.Event, []error) {
	var converted []*store.Event
	var errs []error

	for _, record := range kinesisEvent.Records {
		event, err := ConvertFromKinesisRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", record.EventID, err))
			continue
		}
		if event != nil {
			converted = append(converted, event)
		}
	}
	return converted, errs
}
