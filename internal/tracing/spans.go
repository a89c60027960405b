package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanRegistryScan     = "registry.scan"
	SpanRegistryRegister = "registry.register"
	SpanRegistryBoot     = "registry.boot"
	SpanModuleRegister   = "module.register"
	SpanModuleBoot       = "module.boot"
)

// Attribute keys.
const (
	AttrModuleName  = "module.name"
	AttrModulePath  = "module.path"
	AttrModuleCount = "module.count"
	AttrScanPaths   = "scan.paths"
	AttrCacheHit    = "cache.hit"
)

// Start opens a span. Pair with End.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End closes span, marking it failed when err is non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Module returns the attributes identifying a module.
func Module(name, path string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrModuleName, name),
		attribute.String(AttrModulePath, path),
	}
}
