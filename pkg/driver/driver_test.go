package driver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/onkernel/kernel-go-sdk"
	"github.com/onkernel/kernel-go-sdk/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorSelector(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
		want string
	}{
		{name: "css passes through", loc: CSS(".save-components"), want: ".save-components"},
		{name: "tag passes through", loc: Tag("body"), want: "body"},
		{name: "name attribute", loc: Name("password"), want: `[name="password"]`},
		{name: "name with quote", loc: Name(`a"b`), want: `[name="a\"b"]`},
		{name: "link text", loc: LinkText("My Plugin"), want: `a:text-is("My Plugin")`},
		{name: "xpath prefix", loc: XPath(`//input[@value="7"]`), want: `xpath=//input[@value="7"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.Selector())
		})
	}
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `"123"`, XPathLiteral("123"))
	assert.Equal(t, `'say "hi"'`, XPathLiteral(`say "hi"`))
	assert.Equal(t, `concat("it's ", '"', "q", '"')`, XPathLiteral(`it's "q"`))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, OK, Classify(nil))
	assert.Equal(t, NotFound, Classify(fmt.Errorf("%w: css=#x", ErrNotFound)))
	assert.Equal(t, NotFound, Classify(fmt.Errorf("wrapped: %w", fmt.Errorf("%w: x", ErrNotFound))))
	assert.Equal(t, ActionFailed, Classify(&ActionError{Op: "click", Err: errors.New("detached")}))
	assert.Equal(t, ActionFailed, Classify(context.Canceled))
}

func TestActionErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	err := &ActionError{Op: "click", Locator: CSS("#go"), Err: cause}
	assert.Equal(t, "click css=#go failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := &ActionError{Op: "script", Err: cause}
	assert.Equal(t, "script failed: boom", bare.Error())
}

// FakeBrowsersService is a configurable fake implementing BrowsersService.
type FakeBrowsersService struct {
	NewFunc        func(ctx context.Context, body kernel.BrowserNewParams, opts ...option.RequestOption) (*kernel.BrowserNewResponse, error)
	DeleteByIDFunc func(ctx context.Context, id string, opts ...option.RequestOption) error
}

func (f *FakeBrowsersService) New(ctx context.Context, body kernel.BrowserNewParams, opts ...option.RequestOption) (*kernel.BrowserNewResponse, error) {
	if f.NewFunc != nil {
		return f.NewFunc(ctx, body, opts...)
	}
	return &kernel.BrowserNewResponse{}, nil
}

func (f *FakeBrowsersService) DeleteByID(ctx context.Context, id string, opts ...option.RequestOption) error {
	if f.DeleteByIDFunc != nil {
		return f.DeleteByIDFunc(ctx, id, opts...)
	}
	return nil
}

func TestStartKernel_CreateFails(t *testing.T) {
	var got kernel.BrowserNewParams
	deleted := false
	fake := &FakeBrowsersService{
		NewFunc: func(ctx context.Context, body kernel.BrowserNewParams, opts ...option.RequestOption) (*kernel.BrowserNewResponse, error) {
			got = body
			return nil, errors.New("quota exceeded")
		},
		DeleteByIDFunc: func(ctx context.Context, id string, opts ...option.RequestOption) error {
			deleted = true
			return nil
		},
	}

	d, err := StartKernel(context.Background(), fake, Options{Headless: true}, nil)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.False(t, deleted, "nothing was created, so nothing is deleted")
	assert.True(t, got.Headless.Value)
	assert.True(t, got.Stealth.Value)
	assert.Equal(t, int64(3600), got.TimeoutSeconds.Value)
}

func TestPlaywrightRelease_Idempotent(t *testing.T) {
	calls := 0
	p := &Playwright{
		logger: Options{}.withDefaults().Logger,
		afterClose: func(ctx context.Context) error {
			calls++
			return errors.New("already gone")
		},
	}

	err := p.Release(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already gone")

	// The second call neither repeats the cleanup nor reports a failure.
	assert.NoError(t, p.Release(context.Background()))
	assert.Equal(t, 1, calls)
}
