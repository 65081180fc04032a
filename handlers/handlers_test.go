package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/callmatch/tabular"
)

const callsCSV = `Caller,CallUUID,RecordingURL,PubID,PublisherName
+1 (650) 253-0000,A,https://rec/a,p1,Acme
650-253-0000,B,https://rec/b,p2,Beta
(555) 999-0000,C,https://rec/c,p2,<Beta & Co>
`

const salesCSV = `Order,Number Dialed
1,6502530000
2,555 000 1111
3,
4,15559990000
`

func newTestHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	h, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
	require.NoError(t, err)
	return h.Routes()
}

type upload struct {
	field, filename string
	body            []byte
}

func multipartBody(t *testing.T, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postUploads(t *testing.T, srv http.Handler, path string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, files...)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func bothReports() []upload {
	return []upload{
		{FieldCalls, "calls.csv", []byte(callsCSV)},
		{FieldSales, "sales.csv", []byte(salesCSV)},
	}
}

func TestUploadPage(t *testing.T) {
	srv := newTestHandler(t, Options{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `name="retreaver_report"`)
	assert.Contains(t, rec.Body.String(), `name="sales_report"`)
}

func TestHealth(t *testing.T) {
	srv := newTestHandler(t, Options{})
	for _, path := range []string{"/health", "/api/health"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}
}

func TestProcess(t *testing.T) {
	srv := newTestHandler(t, Options{PreviewRows: 2})
	rec := postUploads(t, srv, "/process", bothReports()...)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(HeaderMergeID))

	page := rec.Body.String()
	assert.Contains(t, page, "showing 2 of 4 rows")
	assert.Contains(t, page, "https://rec/a")
	assert.Contains(t, page, "(650) 253-0000")
	assert.Contains(t, page, `name="csv_file"`)
	assert.Contains(t, page, "&lt;Beta &amp; Co&gt;")
	assert.NotContains(t, page, "<Beta & Co>")
	// The full CSV rides along even though only two rows are previewed.
	assert.Contains(t, page, "5559990000,C,https://rec/c,p2")
}

func TestProcessMissingUpload(t *testing.T) {
	srv := newTestHandler(t, Options{})
	rec := postUploads(t, srv, "/process", upload{FieldCalls, "calls.csv", []byte(callsCSV)})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please upload both files!", strings.TrimSpace(rec.Body.String()))
}

func TestProcessNotMultipart(t *testing.T) {
	srv := newTestHandler(t, Options{})
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader("x=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessMissingColumn(t *testing.T) {
	srv := newTestHandler(t, Options{})
	rec := postUploads(t, srv, "/process",
		upload{FieldCalls, "calls.csv", []byte(callsCSV)},
		upload{FieldSales, "sales.csv", []byte("Order,Phone\n1,5551234567\n")},
	)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `missing required column "Number Dialed"`)
}

func TestProcessMalformed(t *testing.T) {
	srv := newTestHandler(t, Options{})
	rec := postUploads(t, srv, "/process",
		upload{FieldCalls, "calls.csv", []byte("Caller,CallUUID\n1,2,3,4\n")},
		upload{FieldSales, "sales.csv", []byte(salesCSV)},
	)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed input")
}

func TestProcessTooLarge(t *testing.T) {
	srv := newTestHandler(t, Options{MaxUploadBytes: 64})
	rec := postUploads(t, srv, "/process", bothReports()...)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAPIMerge(t *testing.T) {
	srv := newTestHandler(t, Options{})
	rec := postUploads(t, srv, "/api/merge", bothReports()...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp mergeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, rec.Header().Get(HeaderMergeID), resp.MergeID)
	assert.Equal(t, 4, resp.Stats.SalesRows)
	assert.Equal(t, 3, resp.Stats.CallRows)
	assert.Equal(t, 1, resp.Stats.DuplicateCalls)
	assert.Equal(t, 2, resp.Stats.Matched)
	assert.Equal(t, 1, resp.Stats.AbsentNumbers)

	require.Len(t, resp.Rows, 4)
	assert.Equal(t, rowJSON{
		ProcessedCallerNumber: "6502530000", CallUUID: "A", RecordingURL: "https://rec/a",
		PubID: "p1", PublisherName: "Acme", Matched: true,
	}, resp.Rows[0])
	assert.Equal(t, rowJSON{ProcessedCallerNumber: "5550001111"}, resp.Rows[1])
	assert.Equal(t, rowJSON{}, resp.Rows[2])

	require.Len(t, resp.Summary, 2)
	assert.Equal(t, "p1", resp.Summary[0].PubID)
}

func TestAPIMergeErrors(t *testing.T) {
	srv := newTestHandler(t, Options{})

	rec := postUploads(t, srv, "/api/merge", upload{FieldSales, "sales.csv", []byte(salesCSV)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Please upload both files!","code":"missing_input"}`, rec.Body.String())

	rec = postUploads(t, srv, "/api/merge",
		upload{FieldCalls, "calls.csv", []byte("Caller\n5551234567\n")},
		upload{FieldSales, "sales.csv", []byte(salesCSV)},
	)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_column", resp.Code)
	assert.Contains(t, resp.Error, `"CallUUID"`)
}

func TestAPIMergeXLSXMatchesCSV(t *testing.T) {
	srv := newTestHandler(t, Options{})

	calls, err := tabular.ReadCSV(FieldCalls, strings.NewReader(callsCSV))
	require.NoError(t, err)
	var book bytes.Buffer
	require.NoError(t, tabular.WriteXLSX(&book, calls))

	fromCSV := postUploads(t, srv, "/api/merge", bothReports()...)
	fromXLSX := postUploads(t, srv, "/api/merge",
		upload{FieldCalls, "calls.xlsx", book.Bytes()},
		upload{FieldSales, "sales.csv", []byte(salesCSV)},
	)
	require.Equal(t, http.StatusOK, fromXLSX.Code, fromXLSX.Body.String())

	var a, b mergeResponse
	require.NoError(t, json.Unmarshal(fromCSV.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(fromXLSX.Body.Bytes(), &b))
	assert.Equal(t, a.Rows, b.Rows)
	assert.Equal(t, a.Stats, b.Stats)
}

func TestAPICORS(t *testing.T) {
	srv := newTestHandler(t, Options{AllowedOrigins: []string{"https://reports.example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/merge", nil)
	req.Header.Set("Origin", "https://reports.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "https://reports.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func postForm(srv http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestDownloadCSV(t *testing.T) {
	srv := newTestHandler(t, Options{})
	content := "ProcessedCallerNumber,CallUUID,RecordingURL,PubID,PublisherName\n5551234567,A,u,p,n\n"

	rec := postForm(srv, url.Values{FieldCSV: {content}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=Processed_Output.csv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, content, rec.Body.String())
}

func TestDownloadEmpty(t *testing.T) {
	srv := newTestHandler(t, Options{})
	rec := postForm(srv, url.Values{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No CSV content found!", strings.TrimSpace(rec.Body.String()))
}

func TestDownloadXLSX(t *testing.T) {
	srv := newTestHandler(t, Options{})
	content := "ProcessedCallerNumber,CallUUID,RecordingURL,PubID,PublisherName\n" +
		"5551234567,A,u,p1,Acme\n" +
		",,,,\n" +
		"5550000000,,,,\n"

	rec := postForm(srv, url.Values{FieldCSV: {content}, FieldFormat: {"xlsx"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Processed_Output.xlsx")

	book, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{"merged", "summary"}, book.GetSheetList())

	rows, err := book.GetRows("merged")
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus one row per sale")
	assert.Equal(t, []string{"5551234567", "A", "u", "p1", "Acme"}, rows[1])
	assert.Empty(t, strings.Join(rows[2], ""))
	assert.Equal(t, "5550000000", rows[3][0])

	summary, err := book.GetRows("summary")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"PubID", "PublisherName", "Matched Sales"}, {"p1", "Acme", "1"}}, summary)
}

func TestAPIMergeKeepsEmptySalesRecords(t *testing.T) {
	srv := newTestHandler(t, Options{})
	rec := postUploads(t, srv, "/api/merge",
		upload{FieldCalls, "calls.csv", []byte(callsCSV)},
		upload{FieldSales, "sales.csv", []byte("Number Dialed,Amount\n6502530000,10\n,\n5559990000,5\n")},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp mergeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, rowJSON{}, resp.Rows[1])
	assert.Equal(t, 1, resp.Stats.AbsentNumbers)
}

func TestDownloadXLSXBadContent(t *testing.T) {
	srv := newTestHandler(t, Options{})
	rec := postForm(srv, url.Values{FieldCSV: {"a,b\n1,2\n"}, FieldFormat: {"xlsx"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDownloadUnknownFormat(t *testing.T) {
	srv := newTestHandler(t, Options{})
	rec := postForm(srv, url.Values{FieldCSV: {"x"}, FieldFormat: {"pdf"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
