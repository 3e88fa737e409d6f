// Package awsinit performs shared AWS and OpenTelemetry initialization
// for Lambda entry points.
package awsinit

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda/xrayconfig"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/aws/aws-lambda-go/lambda"
)

// Result carries the loaded AWS config and the configured tracer provider.
type Result struct {
	Config aws.Config

	tp *sdktrace.TracerProvider
}

// Init loads the default AWS config, instruments SDK clients with OTel
// middleware, and registers an X-Ray backed tracer provider.
func Init(ctx context.Context) (*Result, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	tp, err := xrayconfig.NewTracerProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("create tracer provider: %w", err)
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(xray.Propagator{})

	return &Result{Config: cfg, tp: tp}, nil
}

// Start runs the Lambda runtime with the handler wrapped in OTel
// instrumentation. It does not return.
func (r *Result) Start(handler any) {
	lambda.Start(otellambda.InstrumentHandler(handler, xrayconfig.WithRecommendedOptions(r.tp)...))
}
