package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServerRunReturnsAfterStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", http.NewServeMux(), zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- srv.Run(time.Second) }()

	// 等监听起来再主动关闭
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, srv.Stop(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
