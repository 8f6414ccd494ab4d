package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cgm-mcp/internal/eventlog"
	"cgm-mcp/internal/narrative"
	"cgm-mcp/internal/report"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var analyzeOpts struct {
	source        string
	profile       string
	start         string
	end           string
	importFile    string
	file          string
	format        string
	narrativeFile string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run every analysis for a source and print the report",
	Long: `Run every analysis for a source and print the report as JSON or as the markdown
narrative context. With --file, a JSONL event file is analysed directly without touching the
event log cache. With --narrative, a narrative text written by an external generator is
attached to the output after removing the configured fallback notice from its start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := analyzeOpts
		if o.file != "" && o.importFile != "" {
			return fmt.Errorf("--file and --import cannot be combined")
		}
		if o.source == "" && o.file != "" {
			o.source = strings.TrimSuffix(filepath.Base(o.file), filepath.Ext(o.file))
		}
		if o.source == "" {
			return fmt.Errorf("--source or --file is required")
		}
		if o.format != "json" && o.format != "markdown" {
			return fmt.Errorf("unsupported format %q (json or markdown)", o.format)
		}

		if o.importFile != "" {
			res, err := provider.ImportFile(o.source, o.importFile)
			if err != nil {
				return err
			}
			log.Info().Int("added", res.Added).Int("total", res.Total).Msg("Imported events")
		}

		p, err := cfg.Profile(o.profile)
		if err != nil {
			return err
		}
		w, err := report.ParseWindow(o.start, o.end)
		if err != nil {
			return err
		}

		var reply *narrative.Reply
		if o.narrativeFile != "" {
			text, err := os.ReadFile(o.narrativeFile)
			if err != nil {
				return fmt.Errorf("failed to read narrative: %w", err)
			}
			r := narrative.NewReply(string(text), cfg.NarrativeNotice)
			reply = &r
		}

		ctx, stop := signalContext()
		defer stop()

		var sess *report.AnalysisSession
		if o.file != "" {
			ds, err := eventlog.ReadDataset(o.file, w.Start, w.End)
			if err != nil {
				return err
			}
			sess = report.NewSessionFromDataset(ds, o.source, p, cfg.Regimen, w, cfg.Analysis)
		} else {
			sess = report.NewAnalysisSession(provider, o.source, p, cfg.Regimen, w, cfg.Analysis)
		}
		r, err := sess.Run(ctx)
		if err != nil {
			return err
		}
		if r.Readings == 0 {
			log.Warn().Str("source", o.source).Msg("No glucose readings for source; import events first")
		}

		out := cmd.OutOrStdout()
		if o.format == "markdown" {
			return writeMarkdown(out, narrative.Build(r, p), reply)
		}
		return writeJSON(out, r, reply)
	},
}

func writeJSON(out io.Writer, r *report.Report, reply *narrative.Reply) error {
	payload := struct {
		*report.Report
		Narrative *narrative.Reply `json:"narrative,omitempty"`
	}{Report: r, Narrative: reply}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeMarkdown(out io.Writer, body string, reply *narrative.Reply) error {
	if _, err := io.WriteString(out, body); err != nil {
		return err
	}
	if reply == nil {
		return nil
	}
	_, err := fmt.Fprintf(out, "\n## Narrative\n\n%s\n", reply.Text)
	return err
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeOpts.source, "source", "", "source id to analyse")
	f.StringVar(&analyzeOpts.profile, "profile", "", "patient profile key (default from CGM_PROFILE)")
	f.StringVar(&analyzeOpts.start, "start", "", "inclusive window start (YYYY-MM-DD or timestamp)")
	f.StringVar(&analyzeOpts.end, "end", "", "inclusive window end (YYYY-MM-DD or timestamp)")
	f.StringVar(&analyzeOpts.importFile, "import", "", "JSONL file to import into the source first")
	f.StringVar(&analyzeOpts.file, "file", "", "JSONL file to analyse without importing it")
	f.StringVarP(&analyzeOpts.format, "format", "f", "json", "output format: json or markdown")
	f.StringVar(&analyzeOpts.narrativeFile, "narrative", "", "narrative text file to attach")
}
