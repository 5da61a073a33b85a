package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"example.com/segygate/internal/common"
	"example.com/segygate/internal/config"
	"example.com/segygate/internal/edit"
	"example.com/segygate/internal/engine"
	"example.com/segygate/internal/report"
	"example.com/segygate/internal/rules"
	"example.com/segygate/internal/segy"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "info":
		infoCmd(os.Args[2:])
	case "headers":
		headersCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	case "edit":
		editCmd(os.Args[2:])
	case "batch":
		batchCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`segyctl %s (built %s) <command> [options]

Commands:
  info      --in <file> [--json] [--text]
  headers   --in <file> [--fields <comma-separated>] [--limit <n>] [--json]
  validate  --in <file> [--config <config.yaml>] [--report-json <out.json>] [--pdf <out.pdf>]
  edit      --in <file> --config <config.yaml> [--dry-run [--preview <n>]] [--metrics] [--progress]
  batch     --in <dir|comma-separated files> --config <config.yaml> [--report-json <out.json>] [--report-pdf <out.pdf>] [--csv <out.csv>]
  report    --batch <report.json> [--pdf <out.pdf>] [--changelog <changes.jsonl>] [--csv <out.csv>]
`, version, buildDate)
}

func infoCmd(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	in := fs.String("in", "", "input SEG-Y file")
	asJSON := fs.Bool("json", false, "print the summary as JSON")
	showText := fs.Bool("text", false, "print the full textual header")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	info, err := segy.ReadInfo(*in)
	if err != nil {
		fmt.Println("read file:", err)
		os.Exit(1)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(info); err != nil {
			fmt.Println("encode:", err)
			os.Exit(1)
		}
		return
	}
	fmt.Printf("File: %s\n", info.Filename)
	fmt.Printf("Size: %s bytes (expected %s)\n",
		common.FormatCount(info.FileSizeBytes), common.FormatCount(info.ExpectedFileSize))
	fmt.Printf("Textual header: %s\n", info.TextEncoding)
	fmt.Printf("Format: %d (%s), %d bytes/sample\n",
		info.FormatCode, segy.FormatNames[info.FormatCode], info.BytesPerSample)
	fmt.Printf("Traces: %s x %d samples, interval %d us\n",
		common.FormatCount(int64(info.TraceCount)), info.SamplesPerTrace, info.SampleInterval)
	if info.LittleEndian {
		fmt.Println("Byte order: little-endian")
	}
	if *showText {
		fmt.Println()
		fmt.Print(segy.FormatLinesDisplay(info.TextLines))
	}

	fields := make([]string, 0, len(info.TraceStats))
	for name := range info.TraceStats {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tMIN\tMAX\tMEAN\tSTD")
	for _, name := range fields {
		s := info.TraceStats[name]
		if s.Min == 0 && s.Max == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.1f\t%.1f\n", name, s.Min, s.Max, s.Mean, s.Std)
	}
	w.Flush()
}

func headersCmd(args []string) {
	fs := flag.NewFlagSet("headers", flag.ExitOnError)
	in := fs.String("in", "", "input SEG-Y file")
	fieldsFlag := fs.String("fields", "", "comma-separated trace header fields")
	limit := fs.Int("limit", 20, "maximum traces to print (0 = all)")
	asJSON := fs.Bool("json", false, "print the columns as JSON")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	var fields []string
	for _, f := range strings.Split(*fieldsFlag, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	cols, err := segy.ReadAllTraceHeaders(*in, fields)
	if err != nil {
		fmt.Println("read headers:", err)
		os.Exit(1)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cols); err != nil {
			fmt.Println("encode:", err)
			os.Exit(1)
		}
		return
	}
	if len(fields) == 0 {
		fields = segy.DefaultHeaderFields
	}
	names := append([]string{"trace_index"}, fields...)
	n := len(cols["trace_index"])
	if *limit > 0 && n > *limit {
		n = *limit
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t")))
	for i := 0; i < n; i++ {
		row := make([]string, len(names))
		for j, name := range names {
			row[j] = fmt.Sprintf("%d", cols[name][i])
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	if total := len(cols["trace_index"]); n < total {
		fmt.Printf("... %s more trace(s)\n", common.FormatCount(int64(total-n)))
	}
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	in := fs.String("in", "", "input SEG-Y file")
	cfgPath := fs.String("config", "", "config file with validation toggles and bounds")
	reportJSON := fs.String("report-json", "", "write the validation result as JSON")
	pdfPath := fs.String("pdf", "", "write the validation result as PDF")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	validator := &rules.Validator{SkipCoordinateRange: true}
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Println("load config:", err)
			os.Exit(1)
		}
		validator = cfg.Validator()
	}
	info, err := segy.ReadInfo(*in)
	if err != nil {
		fmt.Println("read file:", err)
		os.Exit(1)
	}
	res := validator.Validate(info)
	printValidation(res)
	if *reportJSON != "" {
		if err := report.SaveValidationJSON(res, *reportJSON); err != nil {
			fmt.Println("write report:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *reportJSON)
	}
	if *pdfPath != "" {
		if err := report.SaveValidationPDF(res, *pdfPath); err != nil {
			fmt.Println("write pdf:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *pdfPath)
	}
	if res.Overall == rules.Fail {
		os.Exit(1)
	}
}

func printValidation(res *rules.Result) {
	fmt.Printf("%s: %s\n", res.Filename, res.Overall)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, c := range res.Checks {
		fmt.Fprintf(w, "  [%s]\t%s\t%s\n", c.Status, c.Name, c.Message)
	}
	w.Flush()
	fails, warns := res.Count(rules.Fail), res.Count(rules.Warning)
	if fails > 0 || warns > 0 {
		fmt.Printf("%d failure(s), %d warning(s)\n", fails, warns)
	}
}

func editCmd(args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	in := fs.String("in", "", "input SEG-Y file")
	cfgPath := fs.String("config", "", "config file describing the edits")
	dryRun := fs.Bool("dry-run", false, "evaluate edits without writing")
	previewN := fs.Int("preview", 0, "with --dry-run, print a per-trace table over the first N traces")
	metricsFlag := fs.Bool("metrics", false, "print edit throughput metrics")
	progressFlag := fs.Bool("progress", false, "display edit progress updates")
	fs.Parse(args)

	if *in == "" || *cfgPath == "" {
		fmt.Println("required: --in, --config")
		os.Exit(1)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Println("load config:", err)
		os.Exit(1)
	}
	job, err := cfg.BuildJob()
	if err != nil {
		fmt.Println("build job:", err)
		os.Exit(1)
	}
	if job.Empty() {
		fmt.Println("config defines no edits")
		os.Exit(1)
	}

	writer := &edit.Writer{Policy: edit.DefaultRecordPolicy}
	dry := *dryRun || cfg.DryRun
	if !dry && cfg.Changelog != "" {
		writer.Log = edit.NewChangeLog(cfg.Changelog)
	}
	var metrics *common.Metrics
	if *metricsFlag || *progressFlag {
		metrics = common.NewMetrics()
		writer.Metrics = metrics
		metrics.Start()
	}
	var stopProgress func()
	if metrics != nil && *progressFlag {
		stopProgress = common.StartProgressPrinter(os.Stderr, metrics, 500*time.Millisecond)
	}

	var res *edit.Result
	if dry {
		res, err = writer.DryRun(*in, job)
	} else {
		res, err = writer.Apply(*in, job)
	}
	if stopProgress != nil {
		stopProgress()
	}
	if metrics != nil {
		metrics.Stop()
	}
	if err != nil {
		fmt.Println("apply edits:", err)
		os.Exit(1)
	}

	verb := "Applied"
	if dry {
		verb = "Would apply"
	}
	total := res.Stats.Changed + len(res.Records) - res.Stats.Recorded
	fmt.Printf("%s %s change(s) to %s\n", verb, common.FormatCount(int64(total)), res.EditPath)
	if res.Stats.Traces > 0 {
		fmt.Printf("Traces: %s visited, %s matched, %s no-op\n",
			common.FormatCount(int64(res.Stats.Traces)),
			common.FormatCount(int64(res.Stats.Matched)),
			common.FormatCount(int64(res.Stats.Noops)))
	}
	if writer.Log != nil && len(res.Records) > 0 {
		fmt.Printf("Changelog: %s\n", writer.Log.Path())
	}
	if metrics != nil && *metricsFlag {
		snap := metrics.Snapshot()
		fmt.Printf("Metrics: duration=%s traces=%s changes=%s throughput=%.0f traces/s\n",
			snap.Duration.Round(10*time.Millisecond),
			common.FormatCount(snap.Traces),
			common.FormatCount(snap.Changes),
			snap.ThroughputTracesPerSecond())
	}
	if dry && *previewN != 0 && len(job.Trace) > 0 {
		printTracePreview(*in, job, *previewN)
	}
}

func printTracePreview(path string, job *edit.Job, maxTraces int) {
	h, err := segy.Open(path)
	if err != nil {
		fmt.Println("open file:", err)
		os.Exit(1)
	}
	defer h.Close()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRACE\tFIELD\tCURRENT\tNEW\tSTATUS")
	for _, e := range job.Trace {
		rows, err := edit.PreviewTraceEdit(h, e, maxTraces)
		if err != nil {
			fmt.Println("preview:", err)
			os.Exit(1)
		}
		for _, r := range rows {
			status := "no-op"
			if r.Skipped {
				status = "skipped"
			} else if r.Changed {
				status = "changed"
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", r.Trace, r.Field, r.Current, r.New, status)
		}
	}
	w.Flush()
}

var segyExtensions = map[string]bool{".segy": true, ".sgy": true, ".seg": true}

// expandInputs turns the --in value into a list of SEG-Y paths. A directory
// is scanned one level deep for known extensions; anything else is treated
// as a comma-separated file list.
func expandInputs(in string) ([]string, error) {
	info, err := os.Stat(in)
	if err == nil && info.IsDir() {
		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, err
		}
		var paths []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if segyExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				paths = append(paths, filepath.Join(in, e.Name()))
			}
		}
		sort.Strings(paths)
		return paths, nil
	}
	var paths []string
	for _, p := range strings.Split(in, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func batchCmd(args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	in := fs.String("in", "", "input directory or comma-separated files")
	cfgPath := fs.String("config", "", "config file describing the edits")
	reportJSON := fs.String("report-json", "", "write the batch report as JSON")
	reportPDF := fs.String("report-pdf", "", "write the batch report as PDF")
	csvOut := fs.String("csv", "", "write the changelog as CSV")
	quiet := fs.Bool("quiet", false, "suppress per-file progress output")
	fs.Parse(args)

	if *in == "" || *cfgPath == "" {
		fmt.Println("required: --in, --config")
		os.Exit(1)
	}
	paths, err := expandInputs(*in)
	if err != nil {
		fmt.Println("resolve inputs:", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Println("no SEG-Y files found")
		os.Exit(1)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Println("load config:", err)
		os.Exit(1)
	}
	job, err := cfg.BuildJob()
	if err != nil {
		fmt.Println("build job:", err)
		os.Exit(1)
	}
	if job.Empty() {
		fmt.Println("config defines no edits")
		os.Exit(1)
	}

	changelogPath := cfg.Changelog
	if changelogPath == "" {
		changelogPath = "changelog.jsonl"
	}
	writer := &edit.Writer{
		Policy: edit.DefaultRecordPolicy,
		Log:    edit.NewChangeLog(changelogPath),
	}
	eng := engine.New(cfg.Validator(), writer)
	if !*quiet {
		eng.SetCallbacks(engine.Callbacks{
			OnProgress: func(done, total int) {
				fmt.Printf("[%d/%d]\n", done, total)
			},
			OnLog: func(msg string) {
				fmt.Println(msg)
			},
		})
	}

	results := eng.RunBatch(paths, job)
	rep := report.NewBatchReport(results)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSTATUS\tMESSAGE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Filename, r.Status, r.Message)
	}
	w.Flush()
	fmt.Printf("Total: %d, success: %d, failed: %d, skipped: %d, changes recorded: %d\n",
		rep.Summary.Total, rep.Summary.Success, rep.Summary.Failure,
		rep.Summary.Skipped, rep.Summary.Changes)

	if *reportJSON != "" {
		if err := report.SaveBatchJSON(rep, *reportJSON); err != nil {
			fmt.Println("write report:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *reportJSON)
	}
	if *reportPDF != "" {
		if err := report.SaveBatchPDF(rep, changelogPath, *reportPDF); err != nil {
			fmt.Println("write pdf:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *reportPDF)
	}
	if *csvOut != "" {
		records, err := edit.ReadChangeLog(changelogPath)
		if err != nil {
			fmt.Println("read changelog:", err)
			os.Exit(1)
		}
		if err := report.WriteChangelogCSV(records, *csvOut); err != nil {
			fmt.Println("write csv:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *csvOut)
	}
	if rep.Summary.Failure > 0 {
		os.Exit(1)
	}
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	batchPath := fs.String("batch", "", "batch report JSON")
	pdfPath := fs.String("pdf", "", "output report PDF")
	changelogPath := fs.String("changelog", "", "changelog JSONL for the integrity stamp")
	csvOut := fs.String("csv", "", "write the changelog as CSV")
	fs.Parse(args)

	if *batchPath == "" {
		fmt.Println("required: --batch")
		os.Exit(1)
	}
	rep, err := report.LoadBatchJSON(*batchPath)
	if err != nil {
		fmt.Println("load report:", err)
		os.Exit(1)
	}
	fmt.Printf("Generated: %s\n", rep.GeneratedAt.Format(time.RFC3339))
	fmt.Printf("Total: %d, success: %d, failed: %d, skipped: %d, changes recorded: %d\n",
		rep.Summary.Total, rep.Summary.Success, rep.Summary.Failure,
		rep.Summary.Skipped, rep.Summary.Changes)

	if *pdfPath != "" {
		if err := report.SaveBatchPDF(rep, *changelogPath, *pdfPath); err != nil {
			fmt.Println("write pdf:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *pdfPath)
	}
	if *csvOut != "" {
		if *changelogPath == "" {
			fmt.Println("--csv requires --changelog")
			os.Exit(1)
		}
		records, err := edit.ReadChangeLog(*changelogPath)
		if err != nil {
			fmt.Println("read changelog:", err)
			os.Exit(1)
		}
		if err := report.WriteChangelogCSV(records, *csvOut); err != nil {
			fmt.Println("write csv:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *csvOut)
	}
}
