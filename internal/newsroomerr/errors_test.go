package newsroomerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkErrorUnwrapsToUnderlyingError(t *testing.T) {
	base := errors.New("connection refused")
	ne := &NetworkError{Endpoint: "http://example.invalid", Err: base}

	assert.True(t, errors.Is(ne, base), "expected errors.Is to see through NetworkError to its wrapped error")
	assert.NotEmpty(t, ne.Error())
}

func TestNetworkErrorHTMLIncludesEndpointAndMessage(t *testing.T) {
	ne := &NetworkError{Endpoint: "http://example.invalid", Err: errors.New("timeout")}
	html := ne.HTML()
	assert.NotEmpty(t, html)
	assert.Contains(t, html, "http://example.invalid")
	assert.Contains(t, html, "timeout")
}
