package errors

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/status"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	GRPCCode    string `json:"grpc_code,omitempty"`
	GRPCMessage string `json:"grpc_message,omitempty"`
	HTTPCode    int    `json:"http_code,omitempty"`
	APIMessage  string `json:"api_message,omitempty"`
}

// Dump flattens an error chain for logging, pulling out remote status details
// reported by gRPC (Firestore) and REST (Storage, Identity Toolkit) clients.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
		if st, ok := status.FromError(e); ok && d.GRPCCode == "" && st.Code() != 0 {
			d.GRPCCode = st.Code().String()
			d.GRPCMessage = st.Message()
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		d.HTTPCode = apiErr.Code
		d.APIMessage = apiErr.Message
	}

	return d
}
