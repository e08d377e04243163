package parser

import (
	"net/url"
	"strings"
)

// knownMethods are the method tokens accepted on a request line. Matching
// is case-sensitive, so "get" is rejected.
var knownMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
	"TRACE":   true,
	"CONNECT": true,
}

// BodyKind tags the variant held by a Body.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyRaw
	BodyForm
	BodyMultipart
)

// Body is a tagged variant: exactly one of Raw, Form or Parts is populated,
// according to Kind. The zero value is BodyNone.
type Body struct {
	Kind  BodyKind
	Raw   []byte
	Form  []FormField
	Parts []Part
}

// FormField is one key/value pair of a urlencoded form body. Values are
// stored as written; percent-encoding happens at send time.
type FormField struct {
	Key   string
	Value string
}

type PartKind int

const (
	PartField PartKind = iota
	PartFile
)

// Part is one entry of a multipart body. File parts are materialized at
// parse time: Path is already resolved against the request file's base
// directory, Content holds the file bytes and ContentType the guessed type.
type Part struct {
	Kind        PartKind
	Name        string
	Value       string
	Filename    string
	Path        string
	Content     []byte
	ContentType string
}

// Header is one header line as written in the file. Names are not
// case-normalized here; order and duplicates are preserved.
type Header struct {
	Name  string
	Value string
}

// Request is one fully parsed block of the request file. Bodies are
// materialized, so a Request holds no reference back to the source text.
type Request struct {
	Name     string
	Method   string
	RawURL   string
	URL      url.URL
	Headers  []Header
	Body     Body
	Comments []string
	Line     int
}

func NewRequest(name string) *Request {
	return &Request{
		Name:     name,
		Headers:  make([]Header, 0),
		Comments: make([]string, 0),
	}
}

func (r *Request) IsMultiPart() bool {
	return r.Body.Kind == BodyMultipart
}

// ContentType returns the media type of the Content-Type header, without
// parameters, or "" if the header is absent or unparsable.
func (r *Request) ContentType() string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, "Content-Type") {
			return mediaType(h.Value)
		}
	}
	return ""
}
