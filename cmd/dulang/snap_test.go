package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnap_BothSides(t *testing.T) {
	dev := camera.NewMockDevice(40, 30)
	dir := t.TempDir()

	paths, err := snap(context.Background(), dev, camera.DefaultConfig(), snapOptions{
		count:  2,
		facing: "environment",
		both:   true,
		outDir: dir,
	})
	require.NoError(t, err)
	require.Len(t, paths, 4)
	assert.Equal(t, filepath.Join(dir, "snap-01-back.jpg"), paths[0])
	assert.Equal(t, filepath.Join(dir, "snap-04-front.jpg"), paths[3])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])

	assert.Equal(t, 0, dev.Open())
	assert.Equal(t, 1, dev.MaxOpen())
}

func TestSnap_SecondSideFailsKeepsFirstPhotos(t *testing.T) {
	dev := camera.NewMockDevice(40, 30)
	dev.SetFail(camera.FacingFront, camera.ErrDeviceUnavailable)
	dir := t.TempDir()

	paths, err := snap(context.Background(), dev, camera.DefaultConfig(), snapOptions{
		count:  1,
		facing: "back",
		both:   true,
		outDir: dir,
	})
	assert.ErrorIs(t, err, camera.ErrDeviceUnavailable)
	assert.Len(t, paths, 1)
	assert.Equal(t, 0, dev.Open())
}

func TestSnap_BadOptions(t *testing.T) {
	dev := camera.NewMockDevice(8, 8)
	_, err := snap(context.Background(), dev, camera.DefaultConfig(), snapOptions{count: 0, facing: "back", outDir: t.TempDir()})
	assert.Error(t, err)
	_, err = snap(context.Background(), dev, camera.DefaultConfig(), snapOptions{count: 1, facing: "up", outDir: t.TempDir()})
	assert.Error(t, err)
	assert.Empty(t, dev.Calls())
}

func TestCatalogCommands(t *testing.T) {
	t.Setenv("DULANG_LOG_LEVEL", "error")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"catalog", "suppliers"}, "blibli"},
		{[]string{"catalog", "products", "--supplier", "modena", "--status", "pending"}, "Modena Gas Stove"},
		{[]string{"catalog", "history", "p2", "--json"}, `"product_id": "p2"`},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		cmd := rootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(tt.args)
		require.NoError(t, cmd.Execute(), "%v", tt.args)
		assert.Contains(t, out.String(), tt.want, "%v", tt.args)
	}
}
