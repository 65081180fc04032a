package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jalad-shrimali/callmatch/merge"
	"github.com/jalad-shrimali/callmatch/metrics"
	"github.com/jalad-shrimali/callmatch/tabular"
)

const (
	outputCSV  = "Processed_Output.csv"
	outputXLSX = "Processed_Output.xlsx"
	xlsxType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// run is one completed merge of an upload pair.
type run struct {
	ID         string
	Result     *merge.Result
	Summary    []merge.PublisherSummary
	Undialable int
	CSV        []byte
}

// UploadPage renders the form with the two report fields.
func (h *Handler) UploadPage(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, h.log, http.StatusOK, h.pages.upload, map[string]any{
		"calls_field": FieldCalls,
		"sales_field": FieldSales,
		"max_mb":      h.opts.MaxUploadBytes >> 20,
	})
}

// Process merges the uploaded reports and renders the results page with a
// preview and a download form carrying the full CSV.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	res, err := h.merge(w, r)
	if err != nil {
		f := classify(err)
		http.Error(w, f.message, f.status)
		return
	}
	w.Header().Set(HeaderMergeID, res.ID)
	h.pages.render(w, h.log, http.StatusOK, h.pages.results, h.resultBindings(res))
}

// APIMerge is Process for programmatic clients.
func (h *Handler) APIMerge(w http.ResponseWriter, r *http.Request) {
	res, err := h.merge(w, r)
	if err != nil {
		f := classify(err)
		writeJSON(w, h.log, f.status, errorResponse{Error: f.message, Code: f.code})
		return
	}
	w.Header().Set(HeaderMergeID, res.ID)
	writeJSON(w, h.log, http.StatusOK, newMergeResponse(res))
}

// Download sends back the CSV posted from the results page, either as is
// or converted to a workbook with merged and summary sheets.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	content := r.FormValue(FieldCSV)
	if content == "" {
		http.Error(w, "No CSV content found!", http.StatusBadRequest)
		return
	}

	switch strings.ToLower(r.FormValue(FieldFormat)) {
	case "", "csv":
		sendAttachment(w, "text/csv", outputCSV, []byte(content))
	case "xlsx":
		book, err := workbookFromCSV(content)
		if err != nil {
			f := classify(err)
			h.logFailure(r, f, err)
			http.Error(w, f.message, f.status)
			return
		}
		sendAttachment(w, xlsxType, outputXLSX, book)
	default:
		http.Error(w, "unsupported format", http.StatusBadRequest)
	}
}

func sendAttachment(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func workbookFromCSV(content string) ([]byte, error) {
	t, err := tabular.ReadCSV(FieldCSV, strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	records, err := merge.FromTable(t)
	if err != nil {
		return nil, err
	}
	res := &merge.Result{Records: records}

	var buf bytes.Buffer
	if err := tabular.WriteXLSX(&buf, res.Table(), merge.SummaryTable(merge.Summarize(records))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// merge reads both uploads, runs the merge and records its metrics.
func (h *Handler) merge(w http.ResponseWriter, r *http.Request) (*run, error) {
	start := time.Now()
	res, err := h.doMerge(w, r)
	if err != nil {
		f := classify(err)
		metrics.ObserveMerge(f.metricStatus(), time.Since(start))
		h.logFailure(r, f, err)
		return nil, err
	}

	st := res.Result.Stats
	metrics.ObserveMerge(metrics.StatusOK, time.Since(start))
	metrics.ObserveRows(st.CallRows, st.SalesRows, st.Matched)
	h.log.InfoContext(r.Context(), "merge completed",
		"merge_id", res.ID,
		"call_rows", st.CallRows,
		"unique_calls", st.UniqueCalls,
		"sales_rows", st.SalesRows,
		"matched", st.Matched,
		"absent_numbers", st.AbsentNumbers,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (h *Handler) doMerge(w http.ResponseWriter, r *http.Request) (*run, error) {
	calls, sold, err := h.readUploads(w, r)
	if err != nil {
		return nil, err
	}
	result, err := merge.Process(calls, sold)
	if err != nil {
		return nil, err
	}
	csvBytes, err := tabular.EncodeCSV(result.Table())
	if err != nil {
		return nil, fmt.Errorf("encode merged csv: %w", err)
	}
	return &run{
		ID:         uuid.NewString(),
		Result:     result,
		Summary:    merge.Summarize(result.Records),
		Undialable: result.Undialable(h.opts.Region),
		CSV:        csvBytes,
	}, nil
}

// readUploads decodes both report files. Either one missing is a
// MissingInputError, reported before any content is parsed.
func (h *Handler) readUploads(w http.ResponseWriter, r *http.Request) (calls, sold tabular.Table, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return calls, sold, &tabular.MissingInputError{Field: FieldCalls}
		}
		return calls, sold, err
	}
	defer r.MultipartForm.RemoveAll()

	callData, callName, err := formFile(r, FieldCalls)
	if err != nil {
		return calls, sold, err
	}
	salesData, salesName, err := formFile(r, FieldSales)
	if err != nil {
		return calls, sold, err
	}

	if calls, err = tabular.Decode(FieldCalls, callName, callData); err != nil {
		return calls, sold, err
	}
	if sold, err = tabular.Decode(FieldSales, salesName, salesData); err != nil {
		return calls, sold, err
	}
	return calls, sold, nil
}

func formFile(r *http.Request, field string) ([]byte, string, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", &tabular.MissingInputError{Field: field}
	}
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", field, err)
	}
	return data, hdr.Filename, nil
}

// mergeResponse is the JSON body of a successful API merge.
type mergeResponse struct {
	MergeID string                   `json:"merge_id"`
	Stats   runStats                 `json:"stats"`
	Summary []merge.PublisherSummary `json:"summary"`
	Rows    []rowJSON                `json:"rows"`
}

type runStats struct {
	merge.Stats
	Undialable int `json:"undialable"`
}

type rowJSON struct {
	ProcessedCallerNumber string `json:"ProcessedCallerNumber"`
	CallUUID              string `json:"CallUUID"`
	RecordingURL          string `json:"RecordingURL"`
	PubID                 string `json:"PubID"`
	PublisherName         string `json:"PublisherName"`
	Matched               bool   `json:"matched"`
}

func newMergeResponse(res *run) mergeResponse {
	rows := make([]rowJSON, 0, len(res.Result.Records))
	for _, rec := range res.Result.Records {
		rows = append(rows, rowJSON{
			ProcessedCallerNumber: rec.Number,
			CallUUID:              rec.CallUUID,
			RecordingURL:          rec.RecordingURL,
			PubID:                 rec.PubID,
			PublisherName:         rec.PublisherName,
			Matched:               rec.Matched,
		})
	}
	return mergeResponse{
		MergeID: res.ID,
		Stats:   runStats{Stats: res.Result.Stats, Undialable: res.Undialable},
		Summary: res.Summary,
		Rows:    rows,
	}
}
