package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"sync/atomic"

	kernel "github.com/onkernel/kernel-go-sdk"
	"github.com/onkernel/kernel-go-sdk/option"
	"github.com/pterm/pterm"
)

var printedUpgradeMessage atomic.Bool

// upgradeCodes are the API error codes that mean this build of pbpup speaks
// an SDK version the Kernel API no longer accepts.
var upgradeCodes = map[string]bool{
	"sdk_upgrade_required": true,
	"sdk_update_required":  true,
}

// exit is replaced in tests.
var exit = os.Exit

// NewClient returns a Kernel API client whose middleware stops the process
// with an upgrade hint when the API rejects the SDK version.
func NewClient(opts ...option.RequestOption) kernel.Client {
	opts = append(opts, option.WithMiddleware(upgradeMiddleware))
	return kernel.NewClient(opts...)
}

func upgradeMiddleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(req)
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		return resp, err
	}

	// Buffer the body so the SDK can still decode the error.
	var buf bytes.Buffer
	if resp.Body != nil {
		_, _ = io.Copy(&buf, resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(buf.Bytes()))
	}

	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(buf.Bytes(), &body)
	if upgradeCodes[body.Code] {
		if !printedUpgradeMessage.Swap(true) {
			pterm.Error.Println("This version of pbpup is not compatible with the Kernel API.")
			pterm.Info.Println("Please upgrade pbpup, or set PBPUP_BACKEND=local to use a local browser.")
		}
		exit(1)
	}
	return resp, err
}

// IsNotFound returns true if the error is a Kernel API error with HTTP 404.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apierr *kernel.Error
	if errors.As(err, &apierr) {
		return apierr != nil && apierr.StatusCode == http.StatusNotFound
	}
	return false
}
