package observability

// Exported instruments and their label sets.
const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"            // use_case, outcome
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"          // use_case
	MHTTPRequests            MetricKey = "http_requests_total"               // method, route, status
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"     // method, route, status
	MExternalRequests        MetricKey = "external_requests_total"           // peer, endpoint, outcome
	MExternalRequestDuration MetricKey = "external_request_duration_seconds" // peer, endpoint
	MCacheRequests           MetricKey = "cache_requests_total"              // cache, result
)
