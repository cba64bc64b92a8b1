package ingest

import "fmt"

// SchemaError reports structurally insufficient input: too few sheets or an
// empty primary sheet. Fatal to the load, no partial result.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "schema: " + e.Reason
}

// UpstreamFetchError reports an endpoint that is unconfigured, unreachable or
// answered with a non-2xx status. Fatal to the whole API-mode load: one
// failing endpoint fails all of them.
type UpstreamFetchError struct {
	Endpoint string
	URL      string
	Status   int
	Err      error
}

func (e *UpstreamFetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s: status %d", e.Endpoint, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("upstream %s: fetch failed", e.Endpoint)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }
