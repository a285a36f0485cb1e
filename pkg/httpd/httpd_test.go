package httpd

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := New("localhost:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	require.NoError(t, srv.Start(ctx))
	res, err := http.Get("http://" + srv.Addr())
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	cancel()
	assert.NoError(t, srv.Wait())
}
