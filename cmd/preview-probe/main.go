// Command preview-probe opens a verification workspace on a running
// dulang server, starts the camera and saves live preview frames.
//
// Usage:
//
//	preview-probe -server http://localhost:8080 -product "Modena Gas Stove" -frames 10
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dulang/warehouse-verify/internal/httpc"
	"github.com/dulang/warehouse-verify/internal/log"
	"github.com/gorilla/websocket"
)

type workspace struct {
	ID      string `json:"id"`
	Preview string `json:"preview"`
}

type event struct {
	Type    string `json:"type"`
	Session struct {
		State  string `json:"state"`
		Facing string `json:"facing"`
		Photos int    `json:"photos"`
	} `json:"session"`
}

func main() {
	server := flag.String("server", "http://localhost:8080", "dulang server base URL")
	product := flag.String("product", "", "product name to open a workspace for")
	wsID := flag.String("workspace", "", "existing workspace ID (skips opening one)")
	facing := flag.String("facing", "back", "camera side to stream")
	frames := flag.Int("frames", 5, "frames to save before exiting")
	outDir := flag.String("out", "frames", "output directory")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := log.Init(log.Options{Level: *level, JSON: os.Getenv("GO_ENV") == "production"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	api := httpc.New(*server, 10*time.Second)

	id := *wsID
	if id == "" {
		if *product == "" {
			fmt.Fprintln(os.Stderr, "Error: -product or -workspace is required")
			os.Exit(2)
		}
		var ws workspace
		if err := api.Post(ctx, "/api/verify", map[string]string{"product": *product}, &ws); err != nil {
			logger.Error("open workspace", "error", err)
			os.Exit(1)
		}
		id = ws.ID
		logger.Info("workspace opened", "workspace", id)
		// Leave nothing holding the camera behind us.
		defer func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcancel()
			if err := api.Do(dctx, http.MethodDelete, "/api/verify/"+id, nil, nil); err != nil {
				logger.Warn("discard workspace", "error", err)
			}
		}()
	}

	if err := api.Post(ctx, "/api/verify/"+id+"/stream", map[string]string{"facing": *facing}, nil); err != nil {
		logger.Error("request stream", "error", err)
		return
	}

	saved, err := probe(ctx, *server, id, *frames, *outDir)
	logger.Info("done", "frames", saved, "dir", *outDir)
	if err != nil {
		logger.Error("preview", "error", err)
	}
}

// probe reads preview messages until n frames are written.
func probe(ctx context.Context, server, id string, n int, dir string) (int, error) {
	u, err := previewURL(server, id)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", u, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	saved := 0
	for saved < n {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return saved, ctx.Err()
			}
			return saved, err
		}
		switch typ {
		case websocket.TextMessage:
			var ev event
			if err := json.Unmarshal(data, &ev); err == nil {
				log.L().Info("session", "state", ev.Session.State, "facing", ev.Session.Facing, "photos", ev.Session.Photos)
			}
		case websocket.BinaryMessage:
			saved++
			path := filepath.Join(dir, fmt.Sprintf("preview-%03d.jpg", saved))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return saved - 1, err
			}
			log.L().Debug("frame saved", "path", path, "bytes", len(data))
		}
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return saved, nil
}

// previewURL maps http(s)://host to ws(s)://host/ws/verify/{id}/preview.
func previewURL(server, id string) (string, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws/verify/" + id + "/preview"
	return u.String(), nil
}
