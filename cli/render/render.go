// Package render provides centralized output rendering for the spool CLI.
//
// Format selection rules:
//   - text is the default and emits the canonical pipeline layout
//   - --format flag selects json or yaml instead
//   - Invalid formats are errors
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/spoolworks/spool/pipeline"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
// Empty input selects the canonical text format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be text, json, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format Format
	out    io.Writer
}

// NewRenderer creates a renderer from CLI context.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	return &Renderer{format: format, out: os.Stdout}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, out io.Writer) *Renderer {
	return &Renderer{format: format, out: out}
}

// PipelineView is the structured form of one reassembled pipeline.
type PipelineView struct {
	PipelineID int            `json:"pipeline_id" yaml:"pipeline_id"`
	Closed     bool           `json:"closed" yaml:"closed"`
	Fragments  []FragmentView `json:"fragments" yaml:"fragments"`
}

// FragmentView is the structured form of one decoded fragment.
type FragmentView struct {
	FragmentID int    `json:"fragment_id" yaml:"fragment_id"`
	Body       string `json:"body" yaml:"body"`
}

// Results renders drained pipeline results in the configured format.
//
// Text output is the canonical layout:
//
//	Pipeline:<id>
//		<fragment_id>| <body>
func (r *Renderer) Results(results []pipeline.Result) error {
	switch r.format {
	case FormatText:
		return r.renderResultsText(results)
	case FormatJSON:
		return r.renderJSON(viewsOf(results))
	case FormatYAML:
		return r.renderYAML(viewsOf(results))
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// Render outputs auxiliary data (summaries, version info) in the
// configured format. Text mode prints a key/value table.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatText:
		return r.renderKeyValue(data)
	case FormatJSON:
		return r.renderJSON(data)
	case FormatYAML:
		return r.renderYAML(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

func (r *Renderer) renderResultsText(results []pipeline.Result) error {
	for _, res := range results {
		if _, err := fmt.Fprintf(r.out, "Pipeline:%d\n", res.ID); err != nil {
			return err
		}
		for _, frag := range res.Fragments {
			if _, err := fmt.Fprintf(r.out, "\t%d| %s\n", frag.ID, frag.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

func viewsOf(results []pipeline.Result) []PipelineView {
	views := make([]PipelineView, 0, len(results))
	for _, res := range results {
		frags := make([]FragmentView, 0, len(res.Fragments))
		for _, f := range res.Fragments {
			frags = append(frags, FragmentView{
				FragmentID: int(f.ID),
				Body:       string(f.Body),
			})
		}
		views = append(views, PipelineView{
			PipelineID: int(res.ID),
			Closed:     res.Closed,
			Fragments:  frags,
		})
	}
	return views
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	return enc.Encode(data)
}

func (r *Renderer) renderKeyValue(data any) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			name := fieldName(t.Field(i))
			if name == "-" {
				continue
			}
			fmt.Fprintf(w, "%s:\t%s\n", name, formatValue(v.Field(i)))
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			fmt.Fprintf(w, "%v:\t%s\n", iter.Key().Interface(), formatValue(iter.Value()))
		}
	default:
		fmt.Fprintf(w, "%v\n", data)
	}

	return nil
}

func fieldName(f reflect.StructField) string {
	// Prefer json tag name
	if tag := f.Tag.Get("json"); tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			return parts[0]
		}
	}
	return strings.ToLower(f.Name)
}

func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		return fmt.Sprintf("{%d keys}", v.Len())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
