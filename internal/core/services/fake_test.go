package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

// fakeClass is a minimal data interface class writing one single-channel
// series named by its configuration.
type fakeClass struct {
	kind     string
	proposal domain.Metadata
	newErr   error
	created  *atomic.Int32

	mu       sync.Mutex
	received domain.Metadata
}

func newFakeClass(kind string, proposal domain.Metadata) *fakeClass {
	return &fakeClass{kind: kind, proposal: proposal, created: &atomic.Int32{}}
}

func (c *fakeClass) Kind() string { return c.kind }
func (c *fakeClass) Description() string { return "fake " + c.kind }

func (c *fakeClass) SourceSchema() *schema.Schema {
	return schema.Object("Fake source", map[string]*schema.Schema{
		"series": {Type: "string", MinLength: schema.Int(1)},
		"value":  {Type: "integer", Default: schema.Default(1)},
	}, "series")
}

func (c *fakeClass) ConversionOptionsSchema() *schema.Schema {
	return schema.Object("Fake options", map[string]*schema.Schema{
		"module": schema.String("Processing module to write into."),
		"fail":   schema.Bool("Fail while writing.", false),
	})
}

func (c *fakeClass) OptionDimensions() domain.OptionDimensions {
	return domain.OptionDimensions{Independent: []string{"module", "fail"}}
}

func (c *fakeClass) New(config any) (driven.DataInterface, error) {
	c.created.Add(1)
	if c.newErr != nil {
		return nil, c.newErr
	}
	var cfg struct {
		Series string `json:"series"`
		Value  int    `json:"value"`
	}
	if err := schema.Decode(c.SourceSchema(), config, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return &fakeInterface{class: c, series: cfg.Series, value: int16(cfg.Value)}, nil
}

// lastMetadata returns the metadata passed to the last RunConversion of any
// interface of the class.
func (c *fakeClass) lastMetadata() domain.Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received
}

type fakeInterface struct {
	class  *fakeClass
	series string
	value  int16
}

func (i *fakeInterface) Kind() string { return i.class.kind }
func (i *fakeInterface) Metadata() domain.Metadata { return i.class.proposal.Clone() }
func (i *fakeInterface) ConversionOptionsSchema() *schema.Schema { return i.class.ConversionOptionsSchema() }

func (i *fakeInterface) RunConversion(
	ctx context.Context,
	target driven.DocumentWriter,
	metadata domain.Metadata,
	options map[string]any,
) error {
	i.class.mu.Lock()
	i.class.received = metadata
	i.class.mu.Unlock()

	var opts struct {
		Module string `json:"module"`
		Fail   bool   `json:"fail"`
	}
	if err := schema.Decode(i.ConversionOptionsSchema(), options, &opts); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConversionOptions, err)
	}
	if opts.Fail {
		return fmt.Errorf("%w: device full", domain.ErrWrite)
	}
	if opts.Module != "" {
		if err := target.AddProcessingModule(ctx, domain.ProcessingModule{Name: opts.Module, Description: "fake"}); err != nil {
			return err
		}
	}
	return target.AddTimeSeries(ctx, opts.Module, domain.TimeSeries{
		Name:        i.series,
		Unit:        "a.u.",
		Rate:        10,
		Conversion:  1,
		NumChannels: 1,
		Data:        []int16{i.value, i.value, i.value},
	})
}
