package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/onkernel/kernel-go-sdk"
)

// CleanedUpSdkError reports a Kernel API failure by the code and message of
// its JSON body instead of the SDK's full request dump. Op, when set, names
// the step that failed.
type CleanedUpSdkError struct {
	Op  string
	Err error
}

var _ error = CleanedUpSdkError{}

func (e CleanedUpSdkError) Error() string {
	msg := e.apiMessage()
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e CleanedUpSdkError) apiMessage() string {
	var kerror *kernel.Error
	if !errors.As(e.Err, &kerror) {
		return e.Err.Error()
	}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(kerror.RawJSON()), &body); err == nil && body.Message != "" {
		if body.Code == "" {
			return body.Message
		}
		return fmt.Sprintf("%s: %s", body.Code, body.Message)
	}
	if kerror.Response != nil && kerror.Response.Body != nil {
		raw, err := io.ReadAll(kerror.Response.Body)
		if text := strings.TrimSpace(string(raw)); err == nil && text != "" {
			return text
		}
	}
	return e.Err.Error()
}

func (e CleanedUpSdkError) Unwrap() error {
	return e.Err
}
