package web

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
)

// fixture is a one-page catalog with a single "100 €" price. The euro
// sign is code 0x80 mapped through a ToUnicode CMap.
func fixture() []byte {
	content := `BT /F1 12 Tf 72 700 Td (100 \200) Tj ET`
	cmap := "1 beginbfchar\n<80> <20AC>\nendbfchar"
	return []byte(fmt.Sprintf(`%%PDF-1.7
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 595 842] /Resources << /Font << /F1 5 0 R >> >> >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>
endobj
4 0 obj
<< /Length %d >>
stream
%s
endstream
endobj
5 0 obj
<< /Type /Font /Subtype /TrueType /BaseFont /Helvetica /ToUnicode 6 0 R >>
endobj
6 0 obj
<< /Length %d >>
stream
%s
endstream
endobj
trailer
<< /Size 7 /Root 1 0 R >>
startxref
410
%%%%EOF
`, len(content), content, len(cmap), cmap))
}

func uploadRequest(t *testing.T, pdf []byte, markup string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("catalog", "catalog.pdf")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(pdf); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if markup != "" {
		if err := mw.WriteField("markup", markup); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var sessionIDPattern = regexp.MustCompile(`name="session" value="([0-9a-f]+)"`)

func uploadFixture(t *testing.T, h http.Handler, markup string) (string, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, fixture(), markup))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	m := sessionIDPattern.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no session id in review page:\n%s", body)
	}
	return m[1], body
}

func TestIndexServesUploadForm(t *testing.T) {
	h := NewServer(Config{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="catalog"`) || !strings.Contains(body, `value="5"`) {
		t.Fatalf("unexpected index page:\n%s", body)
	}
}

func TestUploadRendersReviewTable(t *testing.T) {
	h := NewServer(Config{}).Handler()
	_, body := uploadFixture(t, h, "")
	if !strings.Contains(body, "occ-0001") {
		t.Fatalf("occurrence id missing:\n%s", body)
	}
	if !strings.Contains(body, "105 €") {
		t.Fatalf("marked-up value missing:\n%s", body)
	}
	if !strings.Contains(body, "Detected 1 price(s) on 1 page(s)") {
		t.Fatalf("summary missing:\n%s", body)
	}
}

func TestMarkupRecalculation(t *testing.T) {
	h := NewServer(Config{}).Handler()
	id, _ := uploadFixture(t, h, "")

	form := url.Values{"session": {id}, "markup": {"10"}}
	req := httptest.NewRequest(http.MethodPost, "/markup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "110 €") {
		t.Fatalf("recalculated value missing:\n%s", rec.Body.String())
	}
}

func TestGenerateDownloadsUpdatedCatalog(t *testing.T) {
	h := NewServer(Config{}).Handler()
	id, _ := uploadFixture(t, h, "")

	form := url.Values{"session": {id}, "text-occ-0001": {"105 €"}}
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, DownloadName) {
		t.Fatalf("disposition = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("download is not a PDF")
	}
}

func TestUploadRejectsGarbage(t *testing.T) {
	h := NewServer(Config{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, []byte("not a pdf"), ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	h := NewServer(Config{}).Handler()
	form := url.Values{"session": {"deadbeef"}}
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
