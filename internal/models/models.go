package models

// FunctionResponse is the result of evaluating one function.
// Found is false when the function produced no value; Value is then null.
type FunctionResponse struct {
	Value  any    `json:"value"`
	Found  bool   `json:"found"`
	Status string `json:"status,omitempty"` // geoip only: found, no_data, lookup_failed, ...
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"`
}

// GeoIPRequest holds the arguments of a geoip evaluation.
// The address range is not validated here; an out-of-range integer is
// reported through the result status like any other absent value.
type GeoIPRequest struct {
	IP        int64  `validate:"-"`
	Attribute string `validate:"required,max=32"`
	Database  string `validate:"required"`
}

// LongToIPRequest holds the argument of a long-to-ip evaluation
type LongToIPRequest struct {
	IP int64 `validate:"gte=0,lte=4294967295"`
}
