// Package auth resolves credentials for the hosted Kernel browser backend.
package auth

import (
	"errors"
	"fmt"

	kernel "github.com/onkernel/kernel-go-sdk"
	"github.com/onkernel/kernel-go-sdk/option"
	"github.com/pterm/pterm"
	"github.com/protex/pbpup/pkg/util"
)

// KernelClient returns a Kernel client authenticated with apiKey. An empty
// apiKey falls back to the key saved by "pbpup kernel login".
func KernelClient(apiKey string, opts ...option.RequestOption) (*kernel.Client, error) {
	if apiKey != "" {
		pterm.Debug.Println("Using API key from environment")
	} else {
		stored, err := LoadAPIKey()
		if err != nil {
			if errors.Is(err, ErrNoAPIKey) {
				return nil, fmt.Errorf("no Kernel API key available. Please run 'pbpup kernel login' or set KERNEL_API_KEY")
			}
			return nil, err
		}
		pterm.Debug.Println("Using stored API key")
		apiKey = stored
	}

	authOpts := append(opts, option.WithHeader("Authorization", "Bearer "+apiKey))
	client := util.NewClient(authOpts...)
	return &client, nil
}
