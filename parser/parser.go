package parser

import (
	"bufio"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Parser turns the text of a request file into a sequence of Requests.
// Relative file paths referenced by multipart bodies are resolved against
// baseDir and read during Parse, so a missing attachment fails the parse
// before anything is sent.
type Parser struct {
	file    *os.File
	reader  io.Reader
	baseDir string
}

func New(name string) (*Parser, error) {
	f, err := os.OpenFile(name, os.O_RDONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open file at %s", name)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Parser{file: f, reader: f, baseDir: filepath.Dir(abs)}, nil
}

// NewReader parses from an arbitrary reader. baseDir may be empty when the
// input contains no file attachments.
func NewReader(reader io.Reader, baseDir string) *Parser {
	return &Parser{reader: reader, baseDir: baseDir}
}

func (p *Parser) Close() error {
	if p.file == nil {
		return nil
	}
	return p.file.Close()
}

// ParseFile is a convenience wrapper around New and Parse.
func ParseFile(name string) ([]Request, error) {
	p, err := New(name)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Parse()
}

// line keeps the 1-based source line number for diagnostics. Blank entries
// (text == "") mark the header/body separator inside a block.
type line struct {
	no   int
	text string
}

type block struct {
	name     string
	comments []string
	lines    []line
}

// Parse reads the whole input and returns the requests in file order. The
// first failing block aborts the parse; no partial result is returned.
func (p *Parser) Parse() ([]Request, error) {
	blocks, err := p.split()
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, ErrEmptyRequest
	}

	requests := make([]Request, 0, len(blocks))
	for _, b := range blocks {
		req, err := p.parseBlock(b)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, nil
}

// split divides the input into request blocks. Blocks are separated by
// "### name" lines or by one or more blank lines followed by a line that
// looks like a request line. A blank line inside a block separates the
// header section from the body; consecutive blank lines collapse to one.
func (p *Parser) split() ([]block, error) {
	scanner := bufio.NewScanner(p.reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	blocks := make([]block, 0, 4)
	var cur *block
	blank := false

	flush := func() {
		if cur != nil && len(cur.lines) > 0 {
			blocks = append(blocks, *cur)
		}
		cur = nil
	}

	no := 0
	for scanner.Scan() {
		no++
		text := scanner.Text()
		trimmed := strings.TrimSpace(text)

		switch {
		case strings.HasPrefix(trimmed, "###"):
			flush()
			cur = &block{name: strings.TrimSpace(strings.TrimPrefix(trimmed, "###"))}
			blank = false
			continue
		case strings.HasPrefix(trimmed, "#"):
			if cur == nil {
				cur = &block{}
			}
			cur.comments = append(cur.comments, strings.TrimPrefix(trimmed, "#"))
			continue
		case trimmed == "":
			blank = true
			continue
		}

		switch {
		case cur == nil:
			cur = &block{}
		case blank && len(cur.lines) > 0 && startsRequest(text):
			flush()
			cur = &block{}
		case blank && len(cur.lines) > 0:
			cur.lines = append(cur.lines, line{no: no})
		}
		blank = false
		cur.lines = append(cur.lines, line{no: no, text: text})
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning request file")
	}
	return blocks, nil
}

// startsRequest reports whether a line opens a new request block: its first
// token is a known method, or an uppercase token followed by a target. Body
// text after a blank line almost never matches this shape; use an explicit
// ### separator when it does.
func startsRequest(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	if knownMethods[fields[0]] {
		return true
	}
	return len(fields) >= 2 && isUpperToken(fields[0])
}

func isUpperToken(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (p *Parser) parseBlock(b block) (*Request, error) {
	if len(b.lines) == 0 {
		return nil, ErrNoRequestLine
	}

	req := NewRequest(b.name)
	req.Comments = append(req.Comments, b.comments...)
	req.Line = b.lines[0].no

	if err := parseRequestLine(req, b.lines[0]); err != nil {
		return nil, err
	}
	body, err := parseHeaders(req, b.lines[1:])
	if err != nil {
		return nil, err
	}
	if err := p.resolveBody(req, body); err != nil {
		return nil, err
	}
	return req, nil
}

// parseRequestLine splits the first line of a block into method and URL.
// Tokens past the URL, such as an HTTP version marker, are ignored.
func parseRequestLine(req *Request, l line) error {
	tokens := strings.Fields(l.text)
	if len(tokens) < 2 {
		return &NotEnoughPartsError{Line: l.no, Text: l.text}
	}
	if !knownMethods[tokens[0]] {
		return &InvalidMethodError{Line: l.no, Method: tokens[0]}
	}
	req.Method = tokens[0]
	req.RawURL = tokens[1]

	u, err := url.Parse(req.RawURL)
	if err != nil {
		return &InvalidURLError{Line: l.no, RawURL: req.RawURL, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return &InvalidURLError{Line: l.no, RawURL: req.RawURL, Err: errors.New("url is not absolute")}
	}
	req.URL = *u
	return nil
}

// parseHeaders consumes header lines up to the blank separator and returns
// the remaining body region. Header order and duplicate names are kept.
func parseHeaders(req *Request, lines []line) ([]line, error) {
	for i, l := range lines {
		if l.text == "" {
			return lines[i+1:], nil
		}
		name, value, ok := strings.Cut(l.text, ":")
		if !ok {
			return nil, &InvalidHeaderError{Line: l.no, Text: l.text}
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !validToken(name) || !validFieldValue(value) {
			return nil, &InvalidHeaderError{Line: l.no, Text: l.text}
		}
		req.Headers = append(req.Headers, Header{Name: name, Value: value})
	}
	return nil, nil
}

// validToken matches the RFC 7230 token syntax used for header names.
func validToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case strings.ContainsRune("!#$%&'*+-.^_`|~", r):
		default:
			return false
		}
	}
	return true
}

func validFieldValue(s string) bool {
	for _, r := range s {
		if r == '\t' {
			continue
		}
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

// resolveBody materializes the body region according to the Content-Type
// header. File attachments are read here so that a broken reference fails
// the parse instead of surfacing mid-batch.
func (p *Parser) resolveBody(req *Request, region []line) error {
	region = trimBlank(region)
	if len(region) == 0 {
		return nil
	}

	switch req.ContentType() {
	case "application/x-www-form-urlencoded":
		return resolveForm(req, region)
	case "multipart/form-data":
		return p.resolveMultipart(req, region)
	default:
		texts := make([]string, 0, len(region))
		for _, l := range region {
			texts = append(texts, l.text)
		}
		req.Body = Body{Kind: BodyRaw, Raw: []byte(strings.Join(texts, "\n"))}
		return nil
	}
}

// resolveForm splits each line, and each &-delimited segment within a line,
// on the first "=" into ordered key/value pairs.
func resolveForm(req *Request, region []line) error {
	fields := make([]FormField, 0, len(region))
	for _, l := range region {
		trimmed := strings.TrimSpace(l.text)
		if trimmed == "" {
			continue
		}
		for _, seg := range strings.Split(trimmed, "&") {
			if seg == "" {
				continue
			}
			key, value, _ := strings.Cut(seg, "=")
			fields = append(fields, FormField{Key: key, Value: value})
		}
	}
	req.Body = Body{Kind: BodyForm, Form: fields}
	return nil
}

// resolveMultipart parses part marker lines:
//
//	field <name> = <value>
//	file <name> @ <path>
//
// and reads every referenced file immediately.
func (p *Parser) resolveMultipart(req *Request, region []line) error {
	parts := make([]Part, 0, len(region))
	for _, l := range region {
		if strings.TrimSpace(l.text) == "" {
			continue
		}
		part, err := p.parsePart(l)
		if err != nil {
			return err
		}
		parts = append(parts, *part)
	}
	req.Body = Body{Kind: BodyMultipart, Parts: parts}
	return nil
}

func (p *Parser) parsePart(l line) (*Part, error) {
	trimmed := strings.TrimSpace(l.text)
	marker, rest, _ := strings.Cut(trimmed, " ")

	switch marker {
	case "field":
		name, value, ok := strings.Cut(rest, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, &InvalidPartError{Line: l.no, Text: l.text}
		}
		return &Part{Kind: PartField, Name: name, Value: strings.TrimSpace(value)}, nil
	case "file":
		name, path, ok := strings.Cut(rest, "@")
		name = strings.TrimSpace(name)
		path = strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, &InvalidPartError{Line: l.no, Text: l.text}
		}
		return p.loadFilePart(name, path)
	default:
		return nil, &InvalidPartError{Line: l.no, Text: l.text}
	}
}

func (p *Parser) loadFilePart(name, path string) (*Part, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.baseDir, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading attachment %s", path)
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(content)
	}
	return &Part{
		Kind:        PartFile,
		Name:        name,
		Filename:    filepath.Base(path),
		Path:        path,
		Content:     content,
		ContentType: ct,
	}, nil
}

func trimBlank(lines []line) []line {
	for len(lines) > 0 && lines[0].text == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1].text == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// mediaType extracts the media type from a Content-Type value, dropping
// parameters like charset or boundary.
func mediaType(v string) string {
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return mt
}
