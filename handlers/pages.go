package handlers

import (
	"embed"
	"html"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/osteele/liquid"

	"github.com/jalad-shrimali/callmatch/merge"
	"github.com/jalad-shrimali/callmatch/phone"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages holds the parsed HTML templates.
type pages struct {
	upload  *liquid.Template
	results *liquid.Template
}

func newPages(region string) (*pages, error) {
	engine := liquid.NewEngine()

	// HTML escape: {{ user_input | escape }}
	engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})
	// National display form: {{ row.number | phone }}
	engine.RegisterFilter("phone", func(s string) string {
		if s == "" {
			return ""
		}
		return phone.Format(s, region)
	})

	p := &pages{}
	for name, dst := range map[string]**liquid.Template{
		"templates/upload.html":  &p.upload,
		"templates/results.html": &p.results,
	} {
		src, err := templateFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		tpl, serr := engine.ParseTemplate(src)
		if serr != nil {
			return nil, serr
		}
		*dst = tpl
	}
	return p, nil
}

func (p *pages) render(w http.ResponseWriter, log *slog.Logger, status int, tpl *liquid.Template, bindings map[string]any) {
	out, err := tpl.Render(bindings)
	if err != nil {
		log.Error("template render failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(out)
}

// resultBindings prepares the results page: a preview of the leading rows,
// counters, the publisher summary and the full CSV for the download form.
func (h *Handler) resultBindings(res *run) map[string]any {
	preview := res.Result.Head(h.opts.PreviewRows)
	rows := make([]map[string]any, 0, len(preview))
	for _, rec := range preview {
		rows = append(rows, map[string]any{
			"number":         rec.Number,
			"call_uuid":      rec.CallUUID,
			"recording_url":  rec.RecordingURL,
			"pub_id":         rec.PubID,
			"publisher_name": rec.PublisherName,
			"matched":        rec.Matched,
		})
	}

	summary := make([]map[string]any, 0, len(res.Summary))
	for _, s := range res.Summary {
		summary = append(summary, map[string]any{
			"pub_id":         s.PubID,
			"publisher_name": s.PublisherName,
			"matched":        s.Matched,
		})
	}

	st := res.Result.Stats
	return map[string]any{
		"merge_id": res.ID,
		"columns":  merge.Header,
		"rows":     rows,
		"total":    len(res.Result.Records),
		"stats": []map[string]any{
			{"label": "Sales rows", "value": strconv.Itoa(st.SalesRows)},
			{"label": "Call rows", "value": strconv.Itoa(st.CallRows)},
			{"label": "Duplicate calls dropped", "value": strconv.Itoa(st.DuplicateCalls)},
			{"label": "Matched", "value": strconv.Itoa(st.Matched)},
			{"label": "Unmatched", "value": strconv.Itoa(st.Unmatched)},
			{"label": "Sales rows without a number", "value": strconv.Itoa(st.AbsentNumbers)},
			{"label": "Undialable numbers", "value": strconv.Itoa(res.Undialable)},
		},
		"summary":     summary,
		"csv":         string(res.CSV),
		"csv_field":   FieldCSV,
		"format_name": FieldFormat,
	}
}
