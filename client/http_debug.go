package client

import (
	"net/http"
	"net/http/httputil"
	"os"
)

// debugTransport dumps every request and response through the client logger.
//
// Enable it with WithDebugLogging(true) or by exporting WINGS_DEBUG=true (or
// DEBUG=true). Dumps contain full bodies, session IDs and bearer tokens.
type debugTransport struct {
	base http.RoundTripper
	c    *Client
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}
	log := dt.c.log

	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

// debugLoggingRequested reports whether WINGS_DEBUG or DEBUG is "true".
func debugLoggingRequested() bool {
	return os.Getenv("WINGS_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
