package runtime

import (
	"bytes"
	"crypto/tls"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"gopkg.in/resty.v1"

	"httper-cli/parser"
)

const DefaultTimeout = 30 * time.Second

// Options configure the shared client for a whole batch. Configuration is
// fixed before any request is assembled; BuiltRequests never mutate it.
type Options struct {
	Timeout  time.Duration
	Insecure bool
	Verbose  bool
	Output   string
	Out      io.Writer
}

type Client struct {
	client *resty.Client
	report *Reporter
	output string
}

func New(opts Options) *Client {
	c := resty.New()
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	} else {
		c.SetTimeout(DefaultTimeout)
	}
	if opts.Insecure {
		c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Client{
		client: c,
		report: NewReporter(out, opts.Verbose),
		output: opts.Output,
	}
}

// BuiltRequest is one transport-ready request bound to the shared client.
// Each request owns its own header set and body, so requests in a batch can
// not affect each other.
type BuiltRequest struct {
	ID     string
	Method string
	URL    string
	R      *resty.Request
}

// Assemble binds each parsed request to the shared client. This is pure
// composition: the parser already validated methods, URLs, headers and
// materialized all bodies.
func (c *Client) Assemble(requests []parser.Request) ([]*BuiltRequest, error) {
	built := make([]*BuiltRequest, 0, len(requests))
	for i, req := range requests {
		b, err := c.assemble(req)
		if err != nil {
			return nil, errors.Wrapf(err, "assembling request %d", i+1)
		}
		built = append(built, b)
	}
	return built, nil
}

func (c *Client) assemble(req parser.Request) (*BuiltRequest, error) {
	r := c.client.R()

	for _, h := range req.Headers {
		// The form and multipart content types are supplied at body
		// encoding time (the multipart one carries the boundary).
		if req.Body.Kind != parser.BodyNone && req.Body.Kind != parser.BodyRaw &&
			strings.EqualFold(h.Name, "Content-Type") {
			continue
		}
		r.Header.Add(h.Name, h.Value)
	}

	switch req.Body.Kind {
	case parser.BodyRaw:
		r.SetBody(req.Body.Raw)
	case parser.BodyForm:
		values := url.Values{}
		for _, f := range req.Body.Form {
			values.Add(f.Key, f.Value)
		}
		r.SetMultiValueFormData(values)
	case parser.BodyMultipart:
		body, contentType, err := encodeMultipart(req.Body.Parts)
		if err != nil {
			return nil, err
		}
		r.SetBody(body)
		r.SetHeader("Content-Type", contentType)
	}

	return &BuiltRequest{
		ID:     uuid.NewV4().String(),
		Method: req.Method,
		URL:    req.URL.String(),
		R:      r,
	}, nil
}

// encodeMultipart writes the already-materialized parts into a multipart
// payload and returns it with the boundary-carrying content type.
func encodeMultipart(parts []parser.Part) ([]byte, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, part := range parts {
		if part.Kind == parser.PartFile {
			fw, err := w.CreateFormFile(part.Name, part.Filename)
			if err != nil {
				return nil, "", err
			}
			if _, err := fw.Write(part.Content); err != nil {
				return nil, "", err
			}
		} else {
			if err := w.WriteField(part.Name, part.Value); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), w.FormDataContentType(), nil
}

// Do executes the batch strictly in order. Failures are collected instead
// of aborting the batch: by the time requests are built, every one of them
// deserves an attempt.
func (c *Client) Do(requests []*BuiltRequest) ([]Response, error) {
	var rErr *multierror.Error
	responses := make([]Response, 0, len(requests))
	for i, req := range requests {
		resp, err := c.execute(req)
		if err != nil {
			rErr = multierror.Append(rErr, errors.Wrapf(err, "executing request %d", i+1))
			continue
		}
		responses = append(responses, *resp)
	}
	return responses, rErr.ErrorOrNil()
}

func (c *Client) execute(req *BuiltRequest) (*Response, error) {
	c.report.Request(req)

	restyResp, err := req.R.Execute(req.Method, req.URL)
	if err != nil {
		return nil, errors.Wrap(err, "sending request")
	}
	resp := newResponse(req.ID, restyResp)

	if name, err := resp.SaveBody(c.output); err != nil {
		// A failed write should not fail the batch.
		c.report.SaveError(err)
	} else if name != "" {
		c.report.Saved(name)
	}

	c.report.Response(resp)
	return resp, nil
}
