package interceptors

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// DefaultSkipList holds URL fragments of requests that never toggle the loading indicator
var DefaultSkipList = []string{
	"/api/auth/refresh",
	"/api/health",
	"/api/auth/logout",
}

// Indicator is the interface that wraps the loading indicator counter.
type Indicator interface {
	// Method Show registers a pending request.
	Show()
	// Method Hide releases a pending request.
	Hide()
}

// LoadingInterceptor keeps the loading indicator visible while requests are pending.
// A request is pending from the moment it enters the stage until it fails,
// or until its response body is fully read or closed.
type LoadingInterceptor struct {
	indicator Indicator
	skipList  []string
}

// NewLoadingInterceptor creates a loading stage. A nil skipList means DefaultSkipList.
func NewLoadingInterceptor(indicator Indicator, skipList []string) *LoadingInterceptor {
	if skipList == nil {
		skipList = DefaultSkipList
	}
	return &LoadingInterceptor{
		indicator: indicator,
		skipList:  append([]string(nil), skipList...),
	}
}

// Intercept implements Interceptor
func (l *LoadingInterceptor) Intercept(req *http.Request, next Next) (*http.Response, error) {
	if l.skipped(req.URL.String()) {
		return next(req)
	}

	l.indicator.Show()
	settle := sync.OnceFunc(l.indicator.Hide)
	handedOff := false
	defer func() {
		if !handedOff {
			settle()
		}
	}()

	resp, err := next(req)
	if err != nil || resp == nil || resp.Body == nil || resp.Body == http.NoBody {
		return resp, err
	}

	resp.Body = &settleBody{ReadCloser: resp.Body, settle: settle}
	handedOff = true
	return resp, nil
}

func (l *LoadingInterceptor) skipped(url string) bool {
	for _, fragment := range l.skipList {
		if fragment != "" && strings.Contains(url, fragment) {
			return true
		}
	}
	return false
}

// settleBody releases the pending request once the body is drained, fails or is closed
type settleBody struct {
	io.ReadCloser
	settle func()
}

func (b *settleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil {
		b.settle()
	}
	return n, err
}

func (b *settleBody) Close() error {
	err := b.ReadCloser.Close()
	b.settle()
	return err
}
