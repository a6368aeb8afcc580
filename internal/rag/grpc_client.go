package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"
)

// Engine RPCs. Requests and responses are google.protobuf.Struct payloads.
const (
	engineServiceName     = "rag.v1.RAGService"
	answerMethod          = "/" + engineServiceName + "/Answer"
	courseAnalyticsMethod = "/" + engineServiceName + "/CourseAnalytics"
)

var (
	errConnectionShutdown       = errors.New("connection shutdown")
	errConnectionStateUnchanged = errors.New("connection state did not change")
	errNotServing               = errors.New("engine not serving")
)

// GrpcClient provides a gRPC client to the RAG engine.
type GrpcClient struct {
	conn           *grpc.ClientConn
	health         healthpb.HealthClient
	addr           string
	requestTimeout time.Duration
	logger         *slog.Logger
}

// GrpcClientConfig holds configuration for the gRPC client.
type GrpcClientConfig struct {
	Address          string
	ConnectTimeout   time.Duration
	RequestTimeout   time.Duration
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
}

// DefaultGrpcClientConfig returns default configuration.
func DefaultGrpcClientConfig() GrpcClientConfig {
	return GrpcClientConfig{
		Address:          "localhost:50051",
		ConnectTimeout:   5 * time.Second,
		RequestTimeout:   60 * time.Second,
		KeepaliveTime:    2 * time.Minute,
		KeepaliveTimeout: 10 * time.Second,
	}
}

// NewGrpcClient connects to the RAG engine and waits until the connection is ready.
// Extra dial options are appended after the defaults.
func NewGrpcClient(cfg GrpcClientConfig, logger *slog.Logger, opts ...grpc.DialOption) (*GrpcClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultGrpcClientConfig()
	if cfg.Address == "" {
		cfg.Address = defaults.Address
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.KeepaliveTime <= 0 {
		cfg.KeepaliveTime = defaults.KeepaliveTime
	}
	if cfg.KeepaliveTimeout <= 0 {
		cfg.KeepaliveTimeout = defaults.KeepaliveTimeout
	}

	kacp := keepalive.ClientParameters{
		Time:                cfg.KeepaliveTime,
		Timeout:             cfg.KeepaliveTimeout,
		PermitWithoutStream: false,
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(kacp),
	}, opts...)

	// Build client connection (no network I/O yet).
	conn, err := grpc.NewClient(cfg.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RAG engine at %s: %w", cfg.Address, err)
	}

	// Force a connection attempt during startup so we fail fast on bad engine endpoints.
	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := waitForReady(connectCtx, conn); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to close gRPC connection after readiness failure", "error", closeErr)
		}
		return nil, fmt.Errorf("RAG engine at %s not ready: %w", cfg.Address, err)
	}

	logger.Info("Connected to RAG engine", "address", cfg.Address)

	return &GrpcClient{
		conn:           conn,
		health:         healthpb.NewHealthClient(conn),
		addr:           cfg.Address,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
	}, nil
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Idle:
			conn.Connect()
		case connectivity.Shutdown:
			return errConnectionShutdown
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w from %s", errConnectionStateUnchanged, state)
		}
	}
}

// Close closes the gRPC connection.
func (c *GrpcClient) Close() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("failed to close gRPC connection", "error", err)
		}
	}
}

// Health checks the engine with the standard gRPC health service.
func (c *GrpcClient) Health(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", errNotServing, resp.GetStatus())
	}
	return nil
}

// Answer asks the engine to answer question given the prior conversation history.
func (c *GrpcClient) Answer(ctx context.Context, question, history string) (string, []any, error) {
	req, err := structpb.NewStruct(map[string]any{
		"question": question,
		"history":  history,
	})
	if err != nil {
		return "", nil, fmt.Errorf("build answer request: %w", err)
	}

	resp, err := c.invoke(ctx, answerMethod, req)
	if err != nil {
		c.logger.Error("Answer RPC failed", "error", err, "addr", c.addr)
		return "", nil, fmt.Errorf("answer request failed: %w", err)
	}

	fields := resp.AsMap()
	answer, ok := fields["answer"].(string)
	if !ok {
		return "", nil, fmt.Errorf("%w: answer is not a string", ErrMalformedResponse)
	}

	var sources []any
	switch raw := fields["sources"].(type) {
	case nil:
		sources = []any{}
	case []any:
		sources = raw
	default:
		return "", nil, fmt.Errorf("%w: sources is not a list", ErrMalformedResponse)
	}

	return answer, sources, nil
}

// CourseAnalytics fetches course statistics from the engine.
func (c *GrpcClient) CourseAnalytics(ctx context.Context) (CourseAnalytics, error) {
	resp, err := c.invoke(ctx, courseAnalyticsMethod, &structpb.Struct{})
	if err != nil {
		c.logger.Error("CourseAnalytics RPC failed", "error", err, "addr", c.addr)
		return CourseAnalytics{}, fmt.Errorf("course analytics request failed: %w", err)
	}
	return decodeCourseAnalytics(resp.AsMap())
}

func (c *GrpcClient) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeCourseAnalytics(fields map[string]any) (CourseAnalytics, error) {
	total, ok := fields["total_courses"].(float64)
	if !ok || total < 0 || total != math.Trunc(total) || total > math.MaxInt32 {
		return CourseAnalytics{}, fmt.Errorf("%w: total_courses must be a non-negative integer", ErrMalformedResponse)
	}

	titles := []string{}
	switch raw := fields["course_titles"].(type) {
	case nil:
	case []any:
		for _, v := range raw {
			title, ok := v.(string)
			if !ok {
				return CourseAnalytics{}, fmt.Errorf("%w: course title is not a string", ErrMalformedResponse)
			}
			titles = append(titles, title)
		}
	default:
		return CourseAnalytics{}, fmt.Errorf("%w: course_titles is not a list", ErrMalformedResponse)
	}

	return CourseAnalytics{TotalCourses: int(total), CourseTitles: titles}, nil
}
