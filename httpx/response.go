package httpx

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
)

// ResponseBuffer holds a whole response in memory until Flush.
// Until then the handler is free to discard it and answer with an error instead.
type ResponseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func NewResponseBuffer() *ResponseBuffer {
	return &ResponseBuffer{}
}

// Attachment marks the buffered body as a file download.
func (resp *ResponseBuffer) Attachment(filename, contentType string) {
	resp.Header().Set("Content-Type", contentType)
	resp.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func (resp *ResponseBuffer) Status() int {
	if resp.status == 0 {
		return http.StatusOK
	}
	return resp.status
}

func (resp *ResponseBuffer) Header() http.Header {
	if resp.header == nil {
		resp.header = http.Header{}
	}
	return resp.header
}

func (resp *ResponseBuffer) Write(body []byte) (int, error) {
	return resp.body.Write(body)
}

func (resp *ResponseBuffer) WriteHeader(statusCode int) {
	resp.status = statusCode
}

// Flush copies headers, status and body to w, with an exact Content-Length.
func (resp *ResponseBuffer) Flush(w http.ResponseWriter) error {
	header := w.Header()
	for key, value := range resp.header {
		header[key] = value
	}
	header.Set("Content-Length", strconv.Itoa(resp.body.Len()))
	w.WriteHeader(resp.Status())

	_, err := resp.body.WriteTo(w)
	return err
}
