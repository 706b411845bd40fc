package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

const contentTypeJSON = "application/json"

// buildRequest resolves a spec into the request that goes on the wire.
//
// The spec is never modified: parameters are consumed from a working copy.
// accessToken is attached as a Bearer token unless the spec is tokenless or
// the token is empty.
func buildRequest(baseURL string, spec RequestSpec, accessToken string) (*OutboundRequest, error) {
	header := buildHeader(spec, accessToken)

	path, remaining := substitutePath(spec.url, spec.params)
	target := joinURL(baseURL, path)

	req := &OutboundRequest{
		Method: spec.method,
		Header: header,
	}

	if spec.method == http.MethodGet {
		req.URL = appendQuery(target, remaining)
		return req, nil
	}

	body, err := encodeBody(remaining)
	if err != nil {
		return nil, fmt.Errorf("httpclient: encode request body: %w", err)
	}
	req.URL = target
	req.Body = body
	return req, nil
}

// buildHeader merges the default Content-Type with caller headers (caller
// wins) and sets the Authorization header.
func buildHeader(spec RequestSpec, accessToken string) http.Header {
	header := make(http.Header, len(spec.headers)+2)
	header.Set("Content-Type", contentTypeJSON)

	for k, v := range spec.headers {
		header[k] = append([]string(nil), v...)
	}

	if !spec.tokenless && accessToken != "" {
		header.Set("Authorization", "Bearer "+accessToken)
	}
	return header
}

// substitutePath replaces {key} placeholders with parameter values.
//
// Parameters are applied in order. A parameter whose placeholder appears in
// the template is consumed; all others are returned for query or body
// placement. Placeholders without a parameter are left verbatim.
func substitutePath(template string, params []Param) (string, []Param) {
	path := template
	remaining := make([]Param, 0, len(params))

	for _, p := range params {
		placeholder := "{" + p.Key + "}"
		if !strings.Contains(path, placeholder) {
			remaining = append(remaining, p)
			continue
		}
		path = strings.ReplaceAll(path, placeholder, fmt.Sprint(p.Value))
	}

	return path, remaining
}

// joinURL prefixes path with the base URL unless path is already absolute.
func joinURL(baseURL, path string) string {
	if baseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// appendQuery form-encodes params onto target. Nil values are omitted and
// slices become repeated keys.
func appendQuery(target string, params []Param) string {
	values := make(url.Values)
	for _, p := range params {
		switch v := p.Value.(type) {
		case nil:
		case []string:
			for _, s := range v {
				values.Add(p.Key, s)
			}
		case []any:
			for _, item := range v {
				if item != nil {
					values.Add(p.Key, fmt.Sprint(item))
				}
			}
		default:
			values.Add(p.Key, fmt.Sprint(v))
		}
	}

	encoded := values.Encode()
	if encoded == "" {
		return target
	}

	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + encoded
}

// encodeBody encodes params as a JSON object. Nil values are omitted.
func encodeBody(params []Param) ([]byte, error) {
	obj := make(map[string]any, len(params))
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		obj[p.Key] = p.Value
	}
	return json.Marshal(obj)
}
