package telemetry

import (
	"errors"
	"testing"
	"time"
)

func TestServiceRecordsDependency(t *testing.T) {
	sink := NewInMemorySink(16)
	svc := NewService(sink, nil)

	svc.TrackDependency(Dependency{
		Type:     "CatalogAPI",
		Name:     "ProductDetails",
		Target:   "https://catalog.example/v8.0/products",
		Start:    time.Now().UTC(),
		Duration: 42 * time.Millisecond,
		Success:  true,
	})

	recs := sink.Recent(0)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Kind != KindDependency {
		t.Fatalf("Kind = %q, want %q", rec.Kind, KindDependency)
	}
	if rec.Name != "CatalogAPI.ProductDetails" {
		t.Fatalf("Name = %q", rec.Name)
	}
	if !rec.Success {
		t.Fatalf("Success = false, want true")
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp: %+v", rec)
	}
}

func TestOperationEndRecordsDuration(t *testing.T) {
	sink := NewInMemorySink(16)
	svc := NewService(sink, nil)

	op := svc.StartOperation("ProcessUserMessage", "websocket")
	op.SetProperty("session_id", "s-1")
	op.End()

	recs := sink.Recent(0)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Kind != KindOperation || rec.Name != "ProcessUserMessage" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Props["session_id"] != "s-1" {
		t.Fatalf("session_id prop = %q, want s-1", rec.Props["session_id"])
	}
	if rec.Props["operation_id"] == "" {
		t.Fatalf("expected generated operation_id prop")
	}
}

func TestTrackExceptionCopiesProps(t *testing.T) {
	sink := NewInMemorySink(16)
	svc := NewService(sink, nil)

	props := map[string]string{"intent": "DetailsReceived"}
	svc.TrackException(errors.New("boom"), props)

	recs := sink.Recent(0)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].Props["error"] != "boom" || recs[0].Props["intent"] != "DetailsReceived" {
		t.Fatalf("unexpected props: %+v", recs[0].Props)
	}
	if _, ok := props["error"]; ok {
		t.Fatalf("caller props must not be mutated")
	}
}

func TestInMemorySinkRingKeepsNewest(t *testing.T) {
	sink := NewInMemorySink(3)
	svc := NewService(sink, nil)
	for _, name := range []string{"a", "b", "c", "d"} {
		svc.TrackEvent(name, nil)
	}

	recs := sink.Recent(0)
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	want := []string{"b", "c", "d"}
	for i, name := range want {
		if recs[i].Name != name {
			t.Fatalf("recs[%d].Name = %q, want %q", i, recs[i].Name, name)
		}
	}
}

func TestNopTrackerIsInert(t *testing.T) {
	var tr Tracker = NewNop()
	op := tr.StartOperation("x", "y")
	op.SetProperty("k", "v")
	op.End()
	tr.TrackEvent("e", nil)
	tr.TrackException(errors.New("ignored"), nil)
}
