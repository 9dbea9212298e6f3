package web

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health exposes the standard gRPC health service for orchestrators that
// probe over gRPC. A nil *Health is a no-op.
type Health struct {
	srv  *grpc.Server
	hs   *health.Server
	addr net.Addr
}

// StartHealth serves grpc.health.v1 on addr. An empty addr disables it.
func StartHealth(addr, service string) (*Health, error) {
	if addr == "" {
		return nil, nil
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	h := &Health{srv: grpc.NewServer(), hs: health.NewServer(), addr: lis.Addr()}
	healthpb.RegisterHealthServer(h.srv, h.hs)
	h.hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.hs.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)

	go func() {
		if err := h.srv.Serve(lis); err != nil {
			log.Error().Err(err).Msg("health server stopped")
		}
	}()
	log.Info().Str("addr", lis.Addr().String()).Msg("grpc health listening")
	return h, nil
}

func (h *Health) Addr() string {
	if h == nil {
		return ""
	}
	return h.addr.String()
}

// Stop reports NOT_SERVING and then drains the server.
func (h *Health) Stop() {
	if h == nil {
		return
	}
	h.hs.Shutdown()
	h.srv.GracefulStop()
}

// Healthz is the HTTP liveness probe.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Metrics serves the Prometheus registry.
func Metrics() http.Handler { return promhttp.Handler() }

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("json encode failed")
	}
}
