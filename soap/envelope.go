package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

const tempuriNamespace = "http://tempuri.org/"

// BuildEnvelope wraps a tempuri.org method call and its string parameters in
// a SOAP 1.1 envelope. Parameters are emitted in sorted order so envelopes
// are reproducible.
func BuildEnvelope(action string, params map[string]string) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">`)
	b.WriteString(`<soap:Body>`)
	fmt.Fprintf(&b, `<%s xmlns=%q>`, action, tempuriNamespace)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "<%s>", k)
		xml.EscapeText(&b, []byte(params[k]))
		fmt.Fprintf(&b, "</%s>", k)
	}

	fmt.Fprintf(&b, "</%s>", action)
	b.WriteString(`</soap:Body>`)
	b.WriteString(`</soap:Envelope>`)
	return b.Bytes()
}

// ExtractResult pulls the text payload out of the <ActionResult> element of
// a SOAP response body.
func ExtractResult(body []byte, action string) (string, error) {
	want := action + "Result"
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &ServiceError{Action: action, Message: "malformed response envelope"}
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != want {
			continue
		}
		var payload strings.Builder
		for {
			inner, err := dec.Token()
			if err != nil {
				return "", &ServiceError{Action: action, Message: "malformed response payload"}
			}
			if cd, ok := inner.(xml.CharData); ok {
				payload.Write(cd)
				continue
			}
			if end, ok := inner.(xml.EndElement); ok && end.Name.Local == want {
				return payload.String(), nil
			}
		}
	}
	return "", &ServiceError{Action: action, Message: "response is missing " + want}
}
