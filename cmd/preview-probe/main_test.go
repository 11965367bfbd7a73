package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dulang/warehouse-verify/internal/httpc"
	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/catalog"
	"github.com/dulang/warehouse-verify/pkg/i18n"
	"github.com/dulang/warehouse-verify/pkg/verification"
	"github.com/dulang/warehouse-verify/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewURL(t *testing.T) {
	tests := []struct {
		server, want string
		err          bool
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws/verify/abc/preview", false},
		{"https://dulang.example/", "wss://dulang.example/ws/verify/abc/preview", false},
		{"ws://10.0.0.2:9000", "ws://10.0.0.2:9000/ws/verify/abc/preview", false},
		{"ftp://x", "", true},
	}
	for _, tt := range tests {
		got, err := previewURL(tt.server, "abc")
		if tt.err {
			assert.Error(t, err, tt.server)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestProbe_SavesFrames(t *testing.T) {
	cat, err := catalog.NewSeededMemory(nil)
	require.NoError(t, err)
	tr, err := i18n.LoadEmbedded(i18n.English)
	require.NoError(t, err)
	dev := camera.NewMockDevice(32, 24)
	cc := camera.DefaultConfig()
	cc.PreviewInterval = 10 * time.Millisecond
	reg := verification.NewRegistry(dev, camera.NewManager(cc), verification.RegistryConfig{}, nil)
	srv := web.NewServer(web.Deps{
		Catalog:    cat,
		Registry:   reg,
		Translator: tr,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.App().Listener(ln)
	defer srv.Shutdown(context.Background())

	base := "http://" + ln.Addr().String()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	api := httpc.New(base, 5*time.Second)
	var ws workspace
	require.NoError(t, api.Post(ctx, "/api/verify", map[string]string{"product": "Modena Gas Stove"}, &ws))
	require.NoError(t, api.Post(ctx, "/api/verify/"+ws.ID+"/stream", map[string]string{"facing": "back"}, nil))

	dir := t.TempDir()
	n, err := probe(ctx, base, ws.ID, 3, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(filepath.Join(dir, "preview-003.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])
}
