// activation-receiver is a local endpoint for the webhook event sink. It
// logs every prediction event it receives.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/exopredict/exopredict/internal/activation"
)

func main() {
	addr := flag.String("addr", ":8099", "listen address for activation receiver")
	raw := flag.Bool("raw", false, "also log the raw event body")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	mux := http.NewServeMux()
	h := &receiver{logger: logger, raw: *raw}
	mux.Handle("/activation", h)
	mux.Handle("/", h)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("activation receiver listening (POST JSON to /activation)", zap.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("receiver error", zap.Error(err))
	}
}

type receiver struct {
	logger *zap.Logger
	raw    bool
}

func (h *receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()

	var ev activation.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		h.logger.Warn("undecodable event", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}

	fields := []zap.Field{
		zap.String("request_id", ev.RequestID),
		zap.String("outcome", string(ev.Outcome)),
		zap.String("stage", ev.Stage),
		zap.String("label", ev.Label),
		zap.Float64("total_ms", ev.TimingMs.Total),
		zap.Float64("engine_ms", ev.TimingMs.Engine),
	}
	if ev.Error != nil {
		fields = append(fields, zap.String("error_type", ev.Error.Type), zap.String("error", ev.Error.Message))
	}
	if h.raw {
		fields = append(fields, zap.ByteString("body", body))
	}
	h.logger.Info("received prediction event", fields...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, `{"status":"ok"}`)
}
