package runtime

import (
	"fmt"
	"mime"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/resty.v1"
)

// HeaderJoinCharacter joins repeated response header values into one entry.
var HeaderJoinCharacter = ", "

// Response captures everything reported about one executed request.
type Response struct {
	ID          string
	HTTPVersion string
	ReturnCode  int
	Status      string
	Header      map[string]string
	Content     []byte
	Duration    time.Duration
}

func newResponse(id string, restyResp *resty.Response) *Response {
	resp := &Response{
		ID:     id,
		Header: make(map[string]string),
	}
	for key, value := range restyResp.Header() {
		resp.Header[key] = strings.Join(value, HeaderJoinCharacter)
	}
	resp.Content = restyResp.Body()
	if restyResp.RawResponse != nil {
		resp.HTTPVersion = restyResp.RawResponse.Proto
	}
	resp.ReturnCode = restyResp.StatusCode()
	resp.Status = restyResp.Status()
	resp.Duration = restyResp.Time()
	return resp
}

// ContentType returns the response media type without parameters, or ""
// when absent or unparsable.
func (r *Response) ContentType() string {
	mt, _, err := mime.ParseMediaType(r.Header["Content-Type"])
	if err != nil {
		return ""
	}
	return mt
}

// ContentLength prefers the Content-Length header and falls back to the
// size of the received body.
func (r *Response) ContentLength() int {
	if v, err := strconv.Atoi(r.Header["Content-Length"]); err == nil {
		return v
	}
	return len(r.Content)
}

func (r *Response) Summary() string {
	n := r.ContentLength()
	return fmt.Sprintf("Response code: %d; Time: %dms (%s); Content length: %d bytes (%s)",
		r.ReturnCode, r.Duration.Milliseconds(), r.Duration, n, humanize.Bytes(uint64(n)))
}

// skipSaveTypes are content types too generic to pick a file extension for;
// their bodies are reported instead of written to disk.
var skipSaveTypes = map[string]bool{
	"":                         true,
	"application/octet-stream": true,
	"text/plain":               true,
}

// SaveBody writes the response content to name, or, when name is empty, to
// a generated response-<timestamp>-<id>.<ext> file with the extension
// guessed from the content type. Responses without a distinctive content
// type are not written; the returned name is empty in that case.
func (r *Response) SaveBody(name string) (string, error) {
	ct := r.ContentType()
	if skipSaveTypes[ct] {
		return "", nil
	}
	if name == "" {
		exts, _ := mime.ExtensionsByType(ct)
		if len(exts) == 0 {
			return "", nil
		}
		name = fmt.Sprintf("response-%s-%s%s",
			time.Now().UTC().Format(time.RFC3339), shortID(r.ID), exts[0])
	}
	if err := os.WriteFile(name, r.Content, 0644); err != nil {
		return "", errors.Wrapf(err, "writing response to %s", name)
	}
	return name, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
