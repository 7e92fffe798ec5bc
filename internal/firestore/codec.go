package firestore

import (
	"fmt"
	"time"

	fs "google.golang.org/api/firestore/v1"

	"github.com/five82/ticklist/internal/task"
)

const (
	fieldText      = "text"
	fieldCompleted = "completed"
	fieldDeadline  = "deadline"
	fieldCreatedAt = "createdAt"

	nullValue = "NULL_VALUE"

	// Millisecond ISO-8601 in UTC, the form browsers produce for createdAt.
	createdAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

func encodeFields(f task.Fields) *fs.Document {
	return &fs.Document{Fields: map[string]fs.Value{
		fieldText:      stringValue(f.Text),
		fieldCompleted: boolValue(f.Completed),
		fieldDeadline:  dateValue(f.Deadline),
		fieldCreatedAt: stringValue(f.CreatedAt.UTC().Format(createdAtLayout)),
	}}
}

func encodePatch(p task.Patch) *fs.Document {
	fields := make(map[string]fs.Value, 3)
	if p.Text != nil {
		fields[fieldText] = stringValue(*p.Text)
	}
	if p.Completed != nil {
		fields[fieldCompleted] = boolValue(*p.Completed)
	}
	if p.Deadline != nil {
		fields[fieldDeadline] = dateValue(*p.Deadline)
	}
	return &fs.Document{Fields: fields}
}

func decodeDocument(doc *fs.Document) (task.Task, error) {
	t := task.Task{ID: documentID(doc.Name)}
	if t.ID == "" {
		return task.Task{}, fmt.Errorf("document without name")
	}

	if v, ok := doc.Fields[fieldText]; ok {
		t.Text = v.StringValue
	}
	if v, ok := doc.Fields[fieldCompleted]; ok {
		t.Completed = v.BooleanValue
	}
	if v, ok := doc.Fields[fieldDeadline]; ok && v.StringValue != "" {
		d, err := task.ParseDate(v.StringValue)
		if err != nil {
			return task.Task{}, fmt.Errorf("document %s: %w", t.ID, err)
		}
		t.Deadline = d
	}
	if v, ok := doc.Fields[fieldCreatedAt]; ok {
		raw := v.StringValue
		if raw == "" {
			raw = v.TimestampValue
		}
		if raw != "" {
			created, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return task.Task{}, fmt.Errorf("document %s: parse createdAt: %w", t.ID, err)
			}
			t.CreatedAt = created
		}
	}
	return t, nil
}

func stringValue(s string) fs.Value {
	return fs.Value{StringValue: s, ForceSendFields: []string{"StringValue"}}
}

// false is the zero value and would be dropped from the request body.
func boolValue(b bool) fs.Value {
	return fs.Value{BooleanValue: b, ForceSendFields: []string{"BooleanValue"}}
}

func dateValue(d task.Date) fs.Value {
	if d.IsZero() {
		return fs.Value{NullValue: nullValue}
	}
	return stringValue(d.String())
}
