// Package config loads YAML edit and validation configuration and turns the
// raw edit definitions into a typed edit job.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"example.com/segygate/internal/edit"
	"example.com/segygate/internal/rules"
	"example.com/segygate/internal/segy"
)

var ErrUnknownEditType = errors.New("unknown edit type")

// Validations toggles check groups. Pointers distinguish "absent" from
// "false" so defaults can differ per group.
type Validations struct {
	CheckFileStructure   *bool         `yaml:"check_file_structure,omitempty"`
	CheckBinaryHeader    *bool         `yaml:"check_binary_header,omitempty"`
	CheckTraceHeader     *bool         `yaml:"check_trace_header,omitempty"`
	CheckCoordinateRange *bool         `yaml:"check_coordinate_range,omitempty"`
	CoordinateBounds     *rules.Bounds `yaml:"coordinate_bounds,omitempty"`
}

// FieldDef is one raw field edit. The populated key decides the mode:
// expression wins over copy_from, which wins over csv_file; a bare value
// means set. The target field is addressed by name or, failing that, by
// its 1-based byte_offset.
type FieldDef struct {
	Name       string `yaml:"name,omitempty"`
	ByteOffset int    `yaml:"byte_offset,omitempty"`
	Value      int    `yaml:"value,omitempty"`
	Expression string `yaml:"expression,omitempty"`
	CopyFrom   string `yaml:"copy_from,omitempty"`
	CSVFile    string `yaml:"csv_file,omitempty"`
	CSVColumn  string `yaml:"csv_column,omitempty"`
}

// EditDef is one raw edit block from the YAML edits list.
type EditDef struct {
	Type string `yaml:"type"`

	// type: ebcdic
	Template     string            `yaml:"template,omitempty"`
	Text         string            `yaml:"text,omitempty"`
	Replacements map[string]string `yaml:"replacements,omitempty"`
	Lines        map[int]string    `yaml:"lines,omitempty"`
	Encoding     string            `yaml:"encoding,omitempty"`

	// type: binary_header / trace_header
	Condition string     `yaml:"condition,omitempty"`
	Fields    []FieldDef `yaml:"fields,omitempty"`
}

// Config is the full YAML document.
type Config struct {
	OutputMode   string      `yaml:"output_mode"`
	OutputDir    string      `yaml:"output_dir"`
	BackupSuffix string      `yaml:"backup_suffix,omitempty"`
	Backup       bool        `yaml:"backup,omitempty"`
	DryRun       bool        `yaml:"dry_run"`
	Overwrite    bool        `yaml:"overwrite,omitempty"`
	Changelog    string      `yaml:"changelog,omitempty"`
	Validations  Validations `yaml:"validations"`
	Edits        []EditDef   `yaml:"edits,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		OutputMode:   string(segy.OutputSeparateFolder),
		OutputDir:    "./output",
		BackupSuffix: ".bak",
	}
}

// Load reads and defaults a YAML config. Relative paths inside the file
// (output dir, changelog, templates, CSV sources) resolve against the
// config file's directory.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	base := filepath.Dir(path)
	cfg.OutputDir = resolvePath(base, cfg.OutputDir)
	cfg.Changelog = resolvePath(base, cfg.Changelog)
	for i := range cfg.Edits {
		cfg.Edits[i].Template = resolvePath(base, cfg.Edits[i].Template)
		for j := range cfg.Edits[i].Fields {
			cfg.Edits[i].Fields[j].CSVFile = resolvePath(base, cfg.Edits[i].Fields[j].CSVFile)
		}
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OutputMode == "" {
		c.OutputMode = string(segy.OutputSeparateFolder)
	}
	// backup: true is shorthand for editing in place with a snapshot.
	if c.Backup {
		c.OutputMode = string(segy.OutputInPlaceBackup)
	}
	if c.OutputDir == "" {
		c.OutputDir = "./output"
	}
	if c.BackupSuffix == "" {
		c.BackupSuffix = ".bak"
	}
}

// Save writes the config back out as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// OutputOptions converts the output settings for the writer.
func (c *Config) OutputOptions() segy.OutputOptions {
	return segy.OutputOptions{
		Mode:         segy.OutputMode(c.OutputMode),
		OutputDir:    c.OutputDir,
		BackupSuffix: c.BackupSuffix,
		Overwrite:    c.Overwrite,
	}
}

// Validator builds the rule engine the config describes. Structure, binary
// header, and trace header checks default on; the coordinate range check
// defaults off and additionally needs bounds to do anything.
func (c *Config) Validator() *rules.Validator {
	v := &rules.Validator{CoordinateBounds: c.Validations.CoordinateBounds}
	if b := c.Validations.CheckFileStructure; b != nil && !*b {
		v.SkipStructure = true
	}
	if b := c.Validations.CheckBinaryHeader; b != nil && !*b {
		v.SkipBinaryHeader = true
	}
	if b := c.Validations.CheckTraceHeader; b != nil && !*b {
		v.SkipTraceHeader = true
	}
	if b := c.Validations.CheckCoordinateRange; b == nil || !*b {
		v.SkipCoordinateRange = true
	}
	return v
}

// BuildJob converts the raw edit definitions into a typed job and validates
// every edit statically.
func (c *Config) BuildJob() (*edit.Job, error) {
	job := &edit.Job{Output: c.OutputOptions()}
	for i, def := range c.Edits {
		switch def.Type {
		case "ebcdic":
			e := &edit.EbcdicEdit{
				TemplateFile: def.Template,
				Text:         def.Text,
				Replacements: def.Replacements,
				Encoding:     segy.Encoding(def.Encoding),
			}
			if len(def.Lines) > 0 {
				e.LineEdits = make(map[int]string, len(def.Lines))
				for k, v := range def.Lines {
					e.LineEdits[k] = v
				}
			}
			if job.Ebcdic != nil {
				return nil, fmt.Errorf("edit %d: only one ebcdic edit per job", i+1)
			}
			job.Ebcdic = e
		case "binary_header":
			for _, f := range def.Fields {
				job.Binary = append(job.Binary, buildBinaryEdit(f))
			}
		case "trace_header":
			for _, f := range def.Fields {
				e := buildTraceEdit(f)
				if def.Condition != "" {
					e.Condition = def.Condition
				}
				job.Trace = append(job.Trace, e)
			}
		default:
			return nil, fmt.Errorf("edit %d: %w: %q", i+1, ErrUnknownEditType, def.Type)
		}
	}
	// Validation-only configs have no edits; the writer rejects empty jobs
	// if one is ever applied.
	if !job.Empty() {
		if err := edit.ValidateJob(job); err != nil {
			return nil, err
		}
	}
	return job, nil
}

func buildBinaryEdit(f FieldDef) edit.BinaryHeaderEdit {
	e := edit.BinaryHeaderEdit{Field: f.Name, ByteOffset: f.ByteOffset, Mode: edit.ModeSet, Value: f.Value}
	if f.Expression != "" {
		e.Mode = edit.ModeExpression
		e.Expression = f.Expression
	}
	return e
}

func buildTraceEdit(f FieldDef) edit.TraceHeaderEdit {
	e := edit.TraceHeaderEdit{Field: f.Name, ByteOffset: f.ByteOffset}
	switch {
	case f.Expression != "":
		e.Mode = edit.ModeExpression
		e.Expression = f.Expression
	case f.CopyFrom != "":
		e.Mode = edit.ModeCopy
		e.CopyFrom = f.CopyFrom
	case f.CSVFile != "":
		e.Mode = edit.ModeCSVImport
		e.CSVFile = f.CSVFile
		e.CSVColumn = f.CSVColumn
	default:
		e.Mode = edit.ModeSet
		e.Value = f.Value
	}
	return e
}

// resolvePath anchors relative paths at base, leaving absolute and empty
// paths alone.
func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
