package runtime

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Reporter prints per-request progress. The summary line is always
// printed; request and response dumps only in verbose mode.
type Reporter struct {
	writer  io.Writer
	verbose bool
}

func NewReporter(w io.Writer, verbose bool) *Reporter {
	return &Reporter{writer: w, verbose: verbose}
}

func (r *Reporter) Request(req *BuiltRequest) {
	if !r.verbose {
		return
	}
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(r.writer, "\n%s %s [%s]\n", bold(req.Method), cyan(req.URL), shortID(req.ID))
	for name, values := range req.R.Header {
		for _, v := range values {
			fmt.Fprintf(r.writer, "%s: %s\n", name, v)
		}
	}
	if body, ok := req.R.Body.([]byte); ok && len(body) > 0 {
		fmt.Fprintf(r.writer, "%s\n", body)
	}
	if len(req.R.FormData) > 0 {
		fmt.Fprintf(r.writer, "%s\n", req.R.FormData.Encode())
	}
	fmt.Fprintln(r.writer, strings.Repeat("-", 80))
}

func (r *Reporter) Response(resp *Response) {
	if r.verbose {
		for name, value := range resp.Header {
			fmt.Fprintf(r.writer, "%s: %s\n", name, value)
		}
		if !strings.HasPrefix(resp.ContentType(), "image") && len(resp.Content) > 0 {
			fmt.Fprintf(r.writer, "%s\n", resp.Content)
		}
	}
	fmt.Fprintf(r.writer, "\n%s\n", statusColor(resp.ReturnCode).Sprint(resp.Summary()))
}

func (r *Reporter) Saved(name string) {
	fmt.Fprintf(r.writer, "%s\n", color.GreenString("Response written to %s", name))
}

func (r *Reporter) SaveError(err error) {
	fmt.Fprintf(r.writer, "%s\n", color.RedString("Failed to write response to file: %v", err))
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return color.New(color.FgRed)
	case code >= 400:
		return color.New(color.FgYellow)
	case code >= 300:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgGreen)
	}
}
