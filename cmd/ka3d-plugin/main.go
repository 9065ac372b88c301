package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redpanda-data/benthos/v4/public/service"
	"github.com/twinfer/ka3d-dat/internal/filter"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
	"github.com/twinfer/ka3d-dat/pkg/ka3d"
)

// Ka3dProcessor is a Benthos processor that decodes KA3D/RVIO asset
// containers and emits a structured summary of the recognized segment.
type Ka3dProcessor struct {
	config      Ka3dConfig
	codec       *ka3d.Codec
	pool        *filter.ExpressionPool
	logger      *service.Logger
	mDecoded    *service.MetricCounter
	mMismatches *service.MetricCounter
	mDropped    *service.MetricCounter
	mErrors     *service.MetricCounter
}

// Ka3dConfig contains configuration parameters for the ka3d processor.
type Ka3dConfig struct {
	CheckBounds     bool   `json:"check_bounds" yaml:"check_bounds"`
	TextEncoding    string `json:"text_encoding" yaml:"text_encoding"`
	VerifyRoundTrip bool   `json:"verify_roundtrip" yaml:"verify_roundtrip"`
	Where           string `json:"where" yaml:"where"`
}

func init() {
	err := service.RegisterProcessor(
		"ka3d",
		ka3dProcessorConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.Processor, error) {
			return newKa3dProcessorFromConfig(conf, mgr)
		},
	)
	if err != nil {
		panic(err)
	}
}

// ka3dProcessorConfig returns a config spec for a ka3d processor.
func ka3dProcessorConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Decodes KA3D and RVIO game asset containers into structured summaries.").
		Description("Each message is treated as one container. The first recognized top level segment is decoded and replaced by a summary holding its tag, schema, dialect, version and record counts. The metadata keys ka3d_tag and ka3d_dialect are set on the output.").
		Field(service.NewBoolField("check_bounds").
			Description("Fail when a segment payload is read past its declared length instead of repositioning at the segment end.").
			Default(false)).
		Field(service.NewStringField("text_encoding").
			Description("Legacy encoding of length prefixed strings, such as windows-1252. Leave empty to pass bytes through as UTF-8.").
			Default("")).
		Field(service.NewBoolField("verify_roundtrip").
			Description("Re-encode the decoded segment and mark the message with an error when the bytes differ from the input.").
			Default(false)).
		Field(service.NewStringField("where").
			Description("CEL expression over the summary fields. Messages whose summary does not match are dropped.").
			Example(`schema == "Font" && records > 100`).
			Default("")).
		Version("0.1.0")
}

// newKa3dProcessorFromConfig creates a new Ka3dProcessor from a parsed config.
func newKa3dProcessorFromConfig(conf *service.ParsedConfig, mgr *service.Resources) (*Ka3dProcessor, error) {
	checkBounds, err := conf.FieldBool("check_bounds")
	if err != nil {
		return nil, err
	}

	textEncoding, err := conf.FieldString("text_encoding")
	if err != nil {
		return nil, err
	}

	verify, err := conf.FieldBool("verify_roundtrip")
	if err != nil {
		return nil, err
	}

	where, err := conf.FieldString("where")
	if err != nil {
		return nil, err
	}

	config := Ka3dConfig{
		CheckBounds:     checkBounds,
		TextEncoding:    textEncoding,
		VerifyRoundTrip: verify,
		Where:           where,
	}

	enc, err := datfile.LookupEncoding(textEncoding)
	if err != nil {
		return nil, err
	}

	pool, err := filter.NewExpressionPool()
	if err != nil {
		return nil, fmt.Errorf("creating filter environment: %w", err)
	}
	if where != "" {
		if _, err := pool.GetExpression(where); err != nil {
			return nil, fmt.Errorf("invalid where expression: %w", err)
		}
	}

	logger := mgr.Logger()
	metrics := mgr.Metrics()

	return &Ka3dProcessor{
		config: config,
		codec: ka3d.NewCodec(
			ka3d.WithCheckBounds(checkBounds),
			ka3d.WithTextEncoding(enc),
		),
		pool:        pool,
		logger:      logger,
		mDecoded:    metrics.NewCounter("ka3d_decoded_messages"),
		mMismatches: metrics.NewCounter("ka3d_roundtrip_mismatches"),
		mDropped:    metrics.NewCounter("ka3d_filtered_messages"),
		mErrors:     metrics.NewCounter("ka3d_processing_errors"),
	}, nil
}

// Process decodes the container held by msg.
func (k *Ka3dProcessor) Process(ctx context.Context, msg *service.Message) (service.MessageBatch, error) {
	data, err := msg.AsBytes()
	if err != nil {
		return k.fail(msg, fmt.Errorf("failed to get binary data from message: %w", err))
	}
	if len(data) == 0 {
		return k.fail(msg, errors.New("empty container data provided"))
	}

	var (
		asset    *ka3d.Asset
		mismatch *ka3d.RoundTripError
	)
	if k.config.VerifyRoundTrip {
		asset, err = k.codec.Verify(ctx, data)
		if errors.As(err, &mismatch) {
			err = nil
		}
	} else {
		asset, err = k.codec.DecodeBytes(ctx, data)
	}
	if err != nil {
		return k.fail(msg, fmt.Errorf("failed to decode container of %d bytes: %w", len(data), err))
	}
	k.mDecoded.Incr(1)

	summary := ka3d.Summarize(asset)
	fields := summary.Fields()
	ok, err := k.pool.Match(k.config.Where, fields)
	if err != nil {
		return k.fail(msg, fmt.Errorf("evaluating where expression: %w", err))
	}
	if !ok {
		k.logger.Tracef("Dropping %s container that does not match filter", summary.Tag)
		k.mDropped.Incr(1)
		return nil, nil
	}

	newMsg := service.NewMessage(nil)
	newMsg.SetStructured(fields)

	msg.MetaWalk(func(key, value string) error {
		newMsg.MetaSet(key, value)
		return nil
	})
	newMsg.MetaSet("ka3d_tag", summary.Tag)
	newMsg.MetaSet("ka3d_dialect", summary.Dialect)

	if mismatch != nil {
		k.logger.Warnf("Container %s does not round trip: %v", summary.Tag, mismatch)
		k.mMismatches.Incr(1)
		newMsg.SetError(mismatch)
	}

	k.logger.Debugf("Decoded %s container of %d bytes", summary.Tag, len(data))
	return service.MessageBatch{newMsg}, nil
}

func (k *Ka3dProcessor) fail(msg *service.Message, err error) (service.MessageBatch, error) {
	k.logger.Errorf("%v", err)
	k.mErrors.Incr(1)
	msg.SetError(err)
	return service.MessageBatch{msg}, nil
}

// Close the processor resources
func (k *Ka3dProcessor) Close(ctx context.Context) error {
	k.logger.Debug("Closing ka3d processor")
	return nil
}

func main() {
	service.RunCLI(context.Background())
}
