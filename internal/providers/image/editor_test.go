package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/providers/taskapi"
)

type captureTransport struct {
	responses map[string]responseStub
	lastBody  []byte
	calls     int
}

type responseStub struct {
	status int
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls++
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		if len(body) > 0 {
			c.lastBody = body
		}
	}
	stub, ok := c.responses[req.URL.Path]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Header:     http.Header{},
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"code":404,"msg":"not found"}`))),
			Request:    req,
		}, nil
	}
	return &http.Response{
		StatusCode: stub.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(stub.body)),
		Request:    req,
	}, nil
}

func (c *captureTransport) setJSON(path, body string) {
	c.responses[path] = responseStub{status: http.StatusOK, body: []byte(body)}
}

func newTransport() *captureTransport {
	return &captureTransport{responses: map[string]responseStub{}}
}

func TestKieEditorSubmitEditPayload(t *testing.T) {
	transport := newTransport()
	transport.setJSON(taskapi.KieCreatePath, `{"code":200,"msg":"success","data":{"taskId":"t-1"}}`)
	editor, err := NewKieEditor(KieOptions{
		APIKey:      "key",
		BaseURL:     "https://kie.test",
		CallbackURL: "https://cb.test/hook",
		Client:      taskapi.Options{HTTPClient: &http.Client{Transport: transport}},
	})
	if err != nil {
		t.Fatalf("new editor: %v", err)
	}

	id, err := editor.Submit(context.Background(), EditRequest{
		Prompt:       "  make it blue ",
		ImageURLs:    []string{"https://img.test/a.png", " "},
		OutputFormat: "jpg",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != "t-1" {
		t.Fatalf("task id = %q, want t-1", id)
	}

	var body struct {
		Model       string `json:"model"`
		CallbackURL string `json:"callBackUrl"`
		Input       struct {
			Prompt       string   `json:"prompt"`
			ImageURLs    []string `json:"image_urls"`
			OutputFormat string   `json:"output_format"`
			ImageSize    string   `json:"image_size"`
		} `json:"input"`
	}
	if err := json.Unmarshal(transport.lastBody, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Model != DefaultKieEditModel {
		t.Fatalf("model = %q, want %q", body.Model, DefaultKieEditModel)
	}
	if body.CallbackURL != "https://cb.test/hook" {
		t.Fatalf("callBackUrl = %q", body.CallbackURL)
	}
	if body.Input.Prompt != "make it blue" {
		t.Fatalf("prompt = %q", body.Input.Prompt)
	}
	if len(body.Input.ImageURLs) != 1 || body.Input.ImageURLs[0] != "https://img.test/a.png" {
		t.Fatalf("image_urls = %v", body.Input.ImageURLs)
	}
	if body.Input.OutputFormat != "jpeg" || body.Input.ImageSize != "auto" {
		t.Fatalf("format/size = %q/%q", body.Input.OutputFormat, body.Input.ImageSize)
	}
}

func TestKieEditorTextOnlyUsesTextModel(t *testing.T) {
	transport := newTransport()
	transport.setJSON(taskapi.KieCreatePath, `{"code":200,"data":{"taskId":"t-2"}}`)
	editor, err := NewKieEditor(KieOptions{
		APIKey: "key",
		Client: taskapi.Options{HTTPClient: &http.Client{Transport: transport}},
	})
	if err != nil {
		t.Fatalf("new editor: %v", err)
	}
	if _, err := editor.Submit(context.Background(), EditRequest{Prompt: "a cat"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(transport.lastBody, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["model"] != DefaultKieTextModel {
		t.Fatalf("model = %v, want %s", body["model"], DefaultKieTextModel)
	}
	if _, ok := body["callBackUrl"]; ok {
		t.Fatalf("callBackUrl should be omitted when unset")
	}
}

func TestEditorsRejectInvalidInputBeforeNetwork(t *testing.T) {
	transport := newTransport()
	opts := taskapi.Options{HTTPClient: &http.Client{Transport: transport}}
	kie, err := NewKieEditor(KieOptions{APIKey: "key", Client: opts})
	if err != nil {
		t.Fatalf("new kie: %v", err)
	}
	nb, err := NewNanoBanana(NanoBananaOptions{APIKey: "key", Client: opts})
	if err != nil {
		t.Fatalf("new nanobanana: %v", err)
	}
	for _, editor := range []Editor{kie, nb} {
		_, err := editor.Submit(context.Background(), EditRequest{Prompt: "   "})
		if !errors.Is(err, domain.ErrInvalidPrompt) {
			t.Fatalf("%s: err = %v, want ErrInvalidPrompt", editor.Name(), err)
		}
		_, err = editor.Submit(context.Background(), EditRequest{Prompt: "x", OutputFormat: "gif"})
		if err == nil {
			t.Fatalf("%s: expected unsupported format error", editor.Name())
		}
	}
	if transport.calls != 0 {
		t.Fatalf("transport calls = %d, want 0", transport.calls)
	}
}

func TestNanoBananaSubmitAndAwait(t *testing.T) {
	transport := newTransport()
	transport.setJSON(taskapi.NanoBananaCreatePath, `{"code":200,"msg":"success","data":{"taskId":"nb-1"}}`)
	transport.setJSON(taskapi.NanoBananaStatusPath, `{"code":200,"msg":"success","data":{"taskId":"nb-1","successFlag":1,"response":{"resultImageUrl":"https://cdn.test/out.png"}}}`)
	editor, err := NewNanoBanana(NanoBananaOptions{
		APIKey:       "key",
		BaseURL:      "https://nb.test",
		PollInterval: time.Millisecond,
		Client:       taskapi.Options{HTTPClient: &http.Client{Transport: transport}},
	})
	if err != nil {
		t.Fatalf("new editor: %v", err)
	}

	id, err := editor.Submit(context.Background(), EditRequest{Prompt: "edit", ImageURLs: []string{"https://img.test/a.png"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	var body nanoBananaGenerate
	if err := json.Unmarshal(transport.lastBody, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Type != "IMAGETOIAMGE" || body.NumImages != 1 || len(body.ImageURLs) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}

	out, err := editor.Await(context.Background(), id, taskapi.AwaitOptions{})
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if out.URL != "https://cdn.test/out.png" {
		t.Fatalf("url = %q", out.URL)
	}
}

func TestNanoBananaTextToImageType(t *testing.T) {
	transport := newTransport()
	transport.setJSON(taskapi.NanoBananaCreatePath, `{"code":200,"data":{"taskId":"nb-2"}}`)
	editor, err := NewNanoBanana(NanoBananaOptions{
		APIKey: "key",
		Client: taskapi.Options{HTTPClient: &http.Client{Transport: transport}},
	})
	if err != nil {
		t.Fatalf("new editor: %v", err)
	}
	if _, err := editor.Submit(context.Background(), EditRequest{Prompt: "a dog"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	var body nanoBananaGenerate
	if err := json.Unmarshal(transport.lastBody, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Type != "TEXTTOIAMGE" || len(body.ImageURLs) != 0 {
		t.Fatalf("unexpected body: %+v", body)
	}
}
