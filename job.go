package img2mlog

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// DefaultOut is the directory programs are written to when none is given
const DefaultOut = "out_mlog"

type hclJob struct {
	Name           string   `hcl:"name,label"`
	Image          string   `hcl:"image"`
	Out            *string  `hcl:"out,optional"`
	Preset         *string  `hcl:"preset,optional"`
	Upscale        *int     `hcl:"upscale,optional"`
	Resample       *string  `hcl:"resample,optional"`
	Colors         *int     `hcl:"colors,optional"`
	Background     *string  `hcl:"background,optional"`
	AlphaThreshold *int     `hcl:"alpha_threshold,optional"`
	Display        *string  `hcl:"display,optional"`
	MaxLines       *int     `hcl:"max_lines,optional"`
	DrawBufLimit   *int     `hcl:"drawbuf_limit,optional"`
	UseEnd         *bool    `hcl:"use_end,optional"`
	Wait           *float64 `hcl:"wait,optional"`
	WaitEvery      *int     `hcl:"wait_every,optional"`
	Preview        *bool    `hcl:"preview,optional"`
}

type hclJobFile struct {
	Jobs []*hclJob `hcl:"job,block"`
}

func evalContext(vars map[string]string) *hcl.EvalContext {
	values := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		values[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(values),
		},
	}
}

// Relative paths in a job file are relative to the file itself
func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (j *hclJob) options(defaults Options) (Options, error) {
	o := defaults
	if j.Preset != nil {
		o.Preset = *j.Preset
	}
	if j.Upscale != nil {
		o.Upscale = *j.Upscale
	}
	if j.Resample != nil {
		o.Resample = *j.Resample
	}
	if j.Colors != nil {
		o.Colors = *j.Colors
	}
	if j.Background != nil {
		bg, err := ParseRGB(*j.Background)
		if err != nil {
			return Options{}, err
		}
		o.Background = bg
	}
	if j.AlphaThreshold != nil {
		o.AlphaThreshold = *j.AlphaThreshold
	}
	if j.Display != nil {
		o.Display = *j.Display
	}
	if j.MaxLines != nil {
		o.MaxLines = *j.MaxLines
	}
	if j.DrawBufLimit != nil {
		o.DrawBufLimit = *j.DrawBufLimit
	}
	if j.UseEnd != nil {
		o.UseEnd = *j.UseEnd
	}
	if j.Wait != nil {
		o.Wait = *j.Wait
	}
	if j.WaitEvery != nil {
		o.WaitEvery = *j.WaitEvery
	}
	if j.Preview != nil {
		o.Preview = *j.Preview
	}
	return o, o.Validate()
}

// LoadJobs parses an HCL job file. Each job block names an image and
// overrides any of the defaults, for example:
//
//	job "logo" {
//	  image   = "${var.assets}/logo.png"
//	  preset  = "large"
//	  upscale = 4
//	  colors  = 48
//	}
//
// vars are available to expressions as var.<name>.
func LoadJobs(path string, vars map[string]string, defaults Options) ([]Job, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var parsedFile hclJobFile
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(vars), &parsedFile)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	dir := filepath.Dir(path)
	seen := make(map[string]struct{})
	jobs := make([]Job, 0, len(parsedFile.Jobs))
	for _, j := range parsedFile.Jobs {
		if _, ok := seen[j.Name]; ok {
			return nil, fmt.Errorf("duplicate job %q in file %s", j.Name, path)
		}
		seen[j.Name] = struct{}{}

		opts, err := j.options(defaults)
		if err != nil {
			return nil, fmt.Errorf("job %q in file %s: %w", j.Name, path, err)
		}

		out := filepath.Join(DefaultOut, j.Name)
		if j.Out != nil {
			out = *j.Out
		}

		jobs = append(jobs, Job{
			Name:    j.Name,
			Image:   resolve(dir, j.Image),
			Out:     resolve(dir, out),
			Options: opts,
		})
	}

	return jobs, nil
}
