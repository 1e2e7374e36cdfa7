package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"strings"
	"time"
)

// TestContext is one browser client talking to a running portal. The cookie
// jar carries the portal_client cookie between steps, so each scenario gets
// its own durable session slot.
type TestContext struct {
	BaseURL string

	client       *http.Client
	lastStatus   int
	lastBody     []byte
	lastResponse map[string]any
}

func NewTestContext(baseURL string) *TestContext {
	tc := &TestContext{BaseURL: strings.TrimRight(baseURL, "/")}
	tc.Reset()
	return tc
}

// Reset forgets the client cookie and the last response.
func (tc *TestContext) Reset() {
	jar, _ := cookiejar.New(nil)
	tc.client = &http.Client{Jar: jar, Timeout: 30 * time.Second}
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastResponse = nil
}

func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequest(http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

func (tc *TestContext) POST(path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

// Upload posts one file as a multipart form.
func (tc *TestContext) Upload(path, field, filename, contentType string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastResponse = nil
	if len(tc.lastBody) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(tc.lastBody, &decoded); err == nil {
			tc.lastResponse = decoded
		}
	}
	return nil
}

func (tc *TestContext) GetLastStatus() int { return tc.lastStatus }

// GetResponseField resolves a dotted path such as "gate.state" in the last
// JSON response.
func (tc *TestContext) GetResponseField(path string) (any, error) {
	if tc.lastResponse == nil {
		return nil, fmt.Errorf("last response is not a JSON object: %s", tc.lastBody)
	}
	var cur any = tc.lastResponse
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", path, key)
		}
		cur, ok = obj[key]
		if !ok {
			return nil, fmt.Errorf("field %q not found in response: %s", path, tc.lastBody)
		}
	}
	return cur, nil
}
