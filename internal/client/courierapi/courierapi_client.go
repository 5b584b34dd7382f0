// Package courierapi is an HTTP client for the courier dispatch API.
package courierapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/models"
)

type CourierAPIClient struct {
	baseUrl    string
	token      string
	httpClient *http.Client
}

func NewCourierAPIClient(baseUrl, token string) *CourierAPIClient {
	return &CourierAPIClient{
		baseUrl: strings.TrimRight(baseUrl, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *CourierAPIClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request (courierapi): %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *CourierAPIClient) do(req *http.Request, want int) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s (courierapi): %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode != want {
		defer resp.Body.Close()
		errorBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err != nil {
			return nil, fmt.Errorf("read error body (courierapi): %w", err)
		}
		var apiErr errorResponse
		if err := json.Unmarshal(errorBody, &apiErr); err != nil {
			return nil, &APIError{StatusCode: resp.StatusCode}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}
	return resp, nil
}

func (c *CourierAPIClient) doJSON(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request (courierapi): %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.do(req, want)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response (courierapi): %w", err)
	}
	return nil
}

func (c *CourierAPIClient) Login(ctx context.Context, email, password string) (client.LoginResult, error) {
	var result client.LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, http.StatusOK, &result)
	return result, err
}

func (c *CourierAPIClient) Me(ctx context.Context) (models.User, error) {
	var resp meResponse
	err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, http.StatusOK, &resp)
	return resp.User, err
}

func (c *CourierAPIClient) ListTasks(ctx context.Context, q client.TaskQuery) (client.TaskPage, error) {
	path := "/tasks"
	if v := q.Values(); len(v) > 0 {
		path += "?" + v.Encode()
	}
	var page client.TaskPage
	err := c.doJSON(ctx, http.MethodGet, path, nil, http.StatusOK, &page)
	return page, err
}

// ExportTasks streams the CSV export into w and returns the bytes copied.
func (c *CourierAPIClient) ExportTasks(ctx context.Context, q client.TaskQuery, w io.Writer) (int64, error) {
	path := "/tasks/export"
	if v := q.Values(); len(v) > 0 {
		path += "?" + v.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "text/csv")
	resp, err := c.do(req, http.StatusOK)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read export (courierapi): %w", err)
	}
	return n, nil
}

func (c *CourierAPIClient) SetStatus(ctx context.Context, taskID int64, status models.TaskStatus, note string) (models.Task, error) {
	var task models.Task
	path := "/tasks/" + strconv.FormatInt(taskID, 10) + "/status"
	err := c.doJSON(ctx, http.MethodPut, path, statusRequest{Status: status, Note: note}, http.StatusOK, &task)
	return task, err
}

// UploadPhotos streams photos as one multipart request. With complete set
// the server also marks the task completed, recording note on the event.
func (c *CourierAPIClient) UploadPhotos(ctx context.Context, taskID int64, photos []client.PhotoFile, complete bool, note string) ([]models.TaskPhoto, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writePhotoForm(mw, photos, complete, note))
	}()

	path := "/tasks/" + strconv.FormatInt(taskID, 10) + "/photos"
	req, err := c.newRequest(ctx, http.MethodPost, path, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, http.StatusCreated)
	if err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	defer resp.Body.Close()
	var out photosResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse photos (courierapi): %w", err)
	}
	return out.Photos, nil
}

func writePhotoForm(mw *multipart.Writer, photos []client.PhotoFile, complete bool, note string) error {
	for _, photo := range photos {
		name := filepath.Base(photo.Name)
		contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "photo", "filename": name}))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, photo.Body); err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
	}
	if complete {
		if err := mw.WriteField("complete", "true"); err != nil {
			return err
		}
	}
	if note != "" {
		if err := mw.WriteField("note", note); err != nil {
			return err
		}
	}
	return mw.Close()
}

var _ client.DispatchAPI = (*CourierAPIClient)(nil)
