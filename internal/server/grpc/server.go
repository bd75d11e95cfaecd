// Package grpcserver runs the vidhub admin gRPC endpoint: health and reflection.
package grpcserver

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Options configure the admin server.
type Options struct {
	Log        *zap.Logger
	Health     *Health
	Reflection bool // expose server reflection, for grpcurl in development
}

// New builds the admin gRPC server with logging and recovery interceptors.
func New(opts Options) *grpc.Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(RecoverUnary(log), LoggingUnary(log)),
		grpc.ChainStreamInterceptor(RecoverStream(log), LoggingStream(log)),
	)
	if opts.Health != nil {
		healthpb.RegisterHealthServer(srv, opts.Health.Server())
	}
	if opts.Reflection {
		reflection.Register(srv)
	}
	return srv
}
