package status

import (
	"errors"
	"fmt"
)

// Code is a typed HTTP status code.
type Code int

const (
	// 1xx Informational
	Continue           Code = 100
	SwitchingProtocols Code = 101

	// 2xx Success
	OK                   Code = 200
	Created              Code = 201
	Accepted             Code = 202
	NonAuthoritativeInfo Code = 203
	NoContent            Code = 204
	ResetContent         Code = 205
	PartialContent       Code = 206

	// 3xx Redirection
	MultipleChoices   Code = 300
	MovedPermanently  Code = 301
	Found             Code = 302
	SeeOther          Code = 303
	NotModified       Code = 304
	UseProxy          Code = 305
	TemporaryRedirect Code = 307
	PermanentRedirect Code = 308

	// 4xx Client Error
	BadRequest                   Code = 400
	Unauthorized                 Code = 401
	PaymentRequired              Code = 402
	Forbidden                    Code = 403
	NotFound                     Code = 404
	MethodNotAllowed             Code = 405
	NotAcceptable                Code = 406
	ProxyAuthRequired            Code = 407
	RequestTimeout               Code = 408
	Conflict                     Code = 409
	Gone                         Code = 410
	LengthRequired               Code = 411
	PreconditionFailed           Code = 412
	RequestEntityTooLarge        Code = 413
	RequestURITooLong            Code = 414
	UnsupportedMediaType         Code = 415
	RequestedRangeNotSatisfiable Code = 416
	ExpectationFailed            Code = 417
	Teapot                       Code = 418 // RFC 2324
	UnprocessableEntity          Code = 422
	TooManyRequests              Code = 429
	RequestHeaderFieldsTooLarge  Code = 431

	// 5xx Server Error
	InternalServerError     Code = 500
	NotImplemented          Code = 501
	BadGateway              Code = 502
	ServiceUnavailable      Code = 503
	GatewayTimeout          Code = 504
	HTTPVersionNotSupported Code = 505
)

var phrases = map[Code]string{
	Continue:           "Continue",
	SwitchingProtocols: "Switching Protocols",

	OK:                   "OK",
	Created:              "Created",
	Accepted:             "Accepted",
	NonAuthoritativeInfo: "Non-Authoritative Information",
	NoContent:            "No Content",
	ResetContent:         "Reset Content",
	PartialContent:       "Partial Content",

	MultipleChoices:   "Multiple Choices",
	MovedPermanently:  "Moved Permanently",
	Found:             "Found",
	SeeOther:          "See Other",
	NotModified:       "Not Modified",
	UseProxy:          "Use Proxy",
	TemporaryRedirect: "Temporary Redirect",
	PermanentRedirect: "Permanent Redirect",

	BadRequest:                   "Bad Request",
	Unauthorized:                 "Unauthorized",
	PaymentRequired:              "Payment Required",
	Forbidden:                    "Forbidden",
	NotFound:                     "Not Found",
	MethodNotAllowed:             "Method Not Allowed",
	NotAcceptable:                "Not Acceptable",
	ProxyAuthRequired:            "Proxy Authentication Required",
	RequestTimeout:               "Request Timeout",
	Conflict:                     "Conflict",
	Gone:                         "Gone",
	LengthRequired:               "Length Required",
	PreconditionFailed:           "Precondition Failed",
	RequestEntityTooLarge:        "Request Entity Too Large",
	RequestURITooLong:            "Request URI Too Long",
	UnsupportedMediaType:         "Unsupported Media Type",
	RequestedRangeNotSatisfiable: "Requested Range Not Satisfiable",
	ExpectationFailed:            "Expectation Failed",
	Teapot:                       "I'm a teapot",
	UnprocessableEntity:          "Unprocessable Entity",
	TooManyRequests:              "Too Many Requests",
	RequestHeaderFieldsTooLarge:  "Request Header Fields Too Large",

	InternalServerError:     "Internal Server Error",
	NotImplemented:          "Not Implemented",
	BadGateway:              "Bad Gateway",
	ServiceUnavailable:      "Service Unavailable",
	GatewayTimeout:          "Gateway Timeout",
	HTTPVersionNotSupported: "HTTP Version Not Supported",
}

// Phrase returns the reason phrase for a status code.
func (c Code) Phrase() string {
	if text, ok := phrases[c]; ok {
		return text
	}
	return "Unknown Status"
}

// IsClientError returns true for 4xx status codes.
func (c Code) IsClientError() bool {
	return c >= 400 && c < 500
}

// IsServerError returns true for 5xx status codes.
func (c Code) IsServerError() bool {
	return c >= 500 && c < 600
}

// IsError returns true for 4xx or 5xx status codes.
func (c Code) IsError() bool {
	return c.IsClientError() || c.IsServerError()
}

// Error is an HTTP-signaled error: raising one anywhere during request
// handling produces the response for its status code.
type Error struct {
	Code Code
}

func NewError(code Code) *Error {
	return &Error{Code: code}
}

func (e *Error) Error() string {
	return fmt.Sprintf("http %d: %s", int(e.Code), e.Code.Phrase())
}

// ErrorCode extracts the status code from an HTTP-signaled error.
func ErrorCode(err error) (Code, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he.Code, true
	}
	return 0, false
}
