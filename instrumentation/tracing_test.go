package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, tp
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestRecordError(t *testing.T) {
	recorder, tp := newRecorder()
	_, span := tp.Tracer("test").Start(context.Background(), "op")

	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	RecordError(nil, errors.New("ignored"))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", ended[0].Status().Code)
	}
	if ended[0].Status().Description != "boom" {
		t.Errorf("description = %q, want %q", ended[0].Status().Description, "boom")
	}
	if len(ended[0].Events()) != 1 {
		t.Errorf("events = %d, want 1 exception event", len(ended[0].Events()))
	}
}

func TestSetSpanStatus(t *testing.T) {
	recorder, tp := newRecorder()
	tracer := tp.Tracer("test")

	_, ok := tracer.Start(context.Background(), "ok")
	SetSpanSuccess(ok)
	ok.End()

	_, failed := tracer.Start(context.Background(), "failed")
	SetSpanError(failed, "denied")
	failed.End()

	SetSpanSuccess(nil)
	SetSpanError(nil, "ignored")

	ended := recorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(ended))
	}
	if ended[0].Status().Code != codes.Ok {
		t.Errorf("ok span status = %v, want Ok", ended[0].Status().Code)
	}
	if ended[1].Status().Code != codes.Error || ended[1].Status().Description != "denied" {
		t.Errorf("failed span status = %+v, want Error/denied", ended[1].Status())
	}
}

func TestAttributeHelpers(t *testing.T) {
	recorder, tp := newRecorder()
	_, span := tp.Tracer("test").Start(context.Background(), "op")

	AddUserAttributes(span, "hashed-user", "admin")
	AddStorageAttributes(span, "get_session", "redis")
	AddProviderAttributes(span, "google", "exchange_code")
	AddHTTPAttributes(span, "GET", "dashboard", 403)
	AddSecurityAttributes(span, "203.0.113.7")
	span.End()

	got := attrMap(recorder.Ended()[0].Attributes())

	wantStrings := map[string]string{
		AttrUserID:            "hashed-user",
		AttrRole:              "admin",
		AttrStorageOperation:  "get_session",
		AttrStorageType:       "redis",
		AttrProviderName:      "google",
		AttrProviderOperation: "exchange_code",
		AttrHTTPMethod:        "GET",
		AttrHTTPRoute:         "dashboard",
		AttrClientIP:          "203.0.113.7",
	}
	for key, want := range wantStrings {
		v, ok := got[key]
		if !ok {
			t.Errorf("attribute %q missing", key)
			continue
		}
		if v.AsString() != want {
			t.Errorf("attribute %q = %q, want %q", key, v.AsString(), want)
		}
	}
	if v := got[AttrHTTPStatusCode]; v.AsInt64() != 403 {
		t.Errorf("attribute %q = %d, want 403", AttrHTTPStatusCode, v.AsInt64())
	}
}

func TestAttributeHelpers_SkipEmpty(t *testing.T) {
	recorder, tp := newRecorder()
	_, span := tp.Tracer("test").Start(context.Background(), "op")

	AddUserAttributes(span, "", "")
	AddSecurityAttributes(span, "")
	SetSpanAttributes(nil, attribute.String("k", "v"))
	span.End()

	if n := len(recorder.Ended()[0].Attributes()); n != 0 {
		t.Errorf("attributes = %d, want 0", n)
	}
}
