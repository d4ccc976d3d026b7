package tracer

import (
	"context"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

func TestResource_CarriesServiceAttributes(t *testing.T) {
	res, err := Resource(context.Background(),
		config.TracingConfig{ServiceName: "clinicflow"},
		config.AppConfig{Version: "1.4.0", Environment: "test"},
	)
	if err != nil {
		t.Fatalf("resource: %v", err)
	}

	want := map[string]string{
		string(semconv.ServiceNameKey):               "clinicflow",
		string(semconv.ServiceVersionKey):            "1.4.0",
		string(semconv.DeploymentEnvironmentNameKey): "test",
	}
	for _, kv := range res.Attributes() {
		if v, ok := want[string(kv.Key)]; ok {
			if kv.Value.AsString() != v {
				t.Errorf("%s = %q, want %q", kv.Key, kv.Value.AsString(), v)
			}
			delete(want, string(kv.Key))
		}
	}
	if len(want) > 0 {
		t.Errorf("missing attributes %v", want)
	}
}

func TestInit_DisabledNeverSamples(t *testing.T) {
	ctx := context.Background()
	tp, err := Init(ctx, config.TracingConfig{Enabled: false}, config.AppConfig{})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer tp.Shutdown(ctx)

	_, span := tp.Tracer("test").Start(ctx, "op")
	defer span.End()
	if span.SpanContext().IsSampled() {
		t.Error("disabled tracing sampled a span")
	}
}
