// Package medline provides the document source adapter for the MedlinePlus
// health-topic search service.
//
// The adapter issues a single search request per call and converts the XML
// response into uniform RawDocument records. All failures (network errors,
// malformed response bodies, unexpected payload shapes) are absorbed at the
// adapter boundary and reported as an empty result plus a diagnostic log
// entry. Callers therefore cannot distinguish "no matches" from "upstream
// failure" by the return value alone; the log carries the cause.
package medline
