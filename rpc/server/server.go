package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dDict/lib/db"
	"github.com/ValentinKolb/dDict/lib/db/engines/jsonfile"
	"github.com/ValentinKolb/dDict/lib/store"
	"github.com/ValentinKolb/dDict/lib/store/lstore"
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/ValentinKolb/dDict/rpc/transport/http"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

const (
	msgInternalError    = "Internal server error."
	metricsStopTimeout  = 5 * time.Second
	fallbackErrResponse = `{"status":"error","message":"` + msgInternalError + `"}`
)

// sessions of all servers in this process
var activeSessions atomic.Int64

func init() {
	metrics.NewGauge("ddict_active_sessions", func() float64 {
		return float64(activeSessions.Load())
	})
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	ctx, cancel := context.WithCancel(context.Background())

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		adapter: NewIStoreServerAdapter(AdapterOptions{
			AllowDelay: config.AllowDelay,
			MaxDelay:   time.Duration(config.MaxDelayMillisecond) * time.Millisecond,
		}),
		counters: xsync.NewMapOf[string, *metrics.Counter](),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RPCServer connects a transport, a serializer and the dictionary store
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	adapter    IRPCServerAdapter
	sink       transport.IEventSink

	// set by Serve, read by Stop from any goroutine
	mu            sync.Mutex
	store         store.IStore
	metricsServer *http.MetricsServer

	// request counters by command and status, cached to skip name formatting
	counters *xsync.MapOf[string, *metrics.Counter]
	sessions atomic.Int64

	// cancelled by Stop, interrupts store delays
	ctx    context.Context
	cancel context.CancelFunc

	stopOnce sync.Once
	stopErr  error
}

// SetEventSink registers a receiver for listener events. Must be called before Serve.
func (s *RPCServer) SetEventSink(sink transport.IEventSink) {
	s.sink = sink
}

// Serve initializes the store, starts the metrics endpoint (if configured)
// and runs the transport until Stop is called.
func (s *RPCServer) Serve() error {
	if s.ctx.Err() != nil {
		return errors.New("server has been stopped")
	}
	if err := s.init(); err != nil {
		return err
	}

	if ms := s.getMetricsServer(); ms != nil {
		go func() {
			if err := ms.Listen(); err != nil {
				Logger.Errorf("Metrics endpoint failed: %v", err)
			}
		}()
	}

	err := s.transport.Listen(s.config)
	if err != nil {
		_ = s.Stop()
		return err
	}
	return nil
}

// Stop stops the transport (closing all sessions), interrupts running store
// delays, stops the metrics endpoint and closes the store. It is idempotent.
func (s *RPCServer) Stop() error {
	s.stopOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		st, ms := s.store, s.metricsServer
		s.mu.Unlock()

		var errs []error
		if err := s.transport.Stop(); err != nil {
			errs = append(errs, err)
		}

		if ms != nil {
			ctx, cancel := context.WithTimeout(context.Background(), metricsStopTimeout)
			if err := ms.Stop(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop metrics endpoint: %w", err))
			}
			cancel()
		}

		if st != nil {
			if err := st.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close store: %w", err))
			}
		}

		activeSessions.Add(-s.sessions.Swap(0))
		s.stopErr = errors.Join(errs...)
		Logger.Infof("RPC Server stopped")
	})
	return s.stopErr
}

// Ready is closed once the transport accepts connections
func (s *RPCServer) Ready() <-chan struct{} {
	return s.transport.Ready()
}

// Addr returns the address the transport is bound to
func (s *RPCServer) Addr() net.Addr {
	return s.transport.Addr()
}

// MetricsAddr returns the address of the metrics endpoint, nil if disabled or not started
func (s *RPCServer) MetricsAddr() net.Addr {
	ms := s.getMetricsServer()
	if ms == nil {
		return nil
	}
	return ms.Addr()
}

// Store returns the dictionary store, nil before Serve
func (s *RPCServer) Store() store.IStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

func (s *RPCServer) getMetricsServer() *http.MetricsServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metricsServer
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) init() error {
	// Function to create a new database instance
	dbFactory := func() db.SnapshotDB {
		return jsonfile.NewJSONFileDB(jsonfile.DefaultOptions(s.config.DictionaryPath))
	}

	st, err := lstore.NewLocalStore(dbFactory)
	if err != nil {
		return fmt.Errorf("failed to open dictionary %s: %w", s.config.DictionaryPath, err)
	}
	Logger.Infof("Loaded dictionary %s with %d words", s.config.DictionaryPath, st.Size())

	var ms *http.MetricsServer
	if s.config.MetricsEndpoint != "" {
		ms = http.NewMetricsServer(
			s.config.MetricsEndpoint,
			func() interface{} { return st.GetDBInfo() },
			s.config.LogLevel == "debug",
		)
	}

	// Stop cancels ctx before it reads the fields, so either it sees them
	// or init sees the cancellation
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		_ = st.Close()
		return errors.New("server has been stopped")
	}
	s.store = st
	s.metricsServer = ms
	s.mu.Unlock()

	// Configure the transport layer
	s.transport.RegisterEventSink(&serverSink{server: s, next: s.sink})
	s.registerTransportHandler()

	Logger.Infof("dDict setup completed successfully")
	return nil
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(req []byte) []byte {
		start := time.Now()
		resp := s.handle(req)

		// Return result
		val, err := s.serializer.SerializeResponse(resp)
		if err != nil {
			Logger.Errorf("Failed to serialize response: %v", err)
			val = []byte(fallbackErrResponse)
		}

		s.observe(resp.Status, start)
		return val
	})
}

// handle decodes one request line and dispatches it to the adapter
func (s *RPCServer) handle(req []byte) (resp *common.Response) {
	// a panic must not take down the whole server
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Panic while handling request %q: %v", req, r)
			resp = common.NewErrorResponse(msgInternalError)
		}
	}()

	// Decode the request
	msg, err := s.serializer.DeserializeRequest(req)
	switch {
	case errors.Is(err, serializer.ErrUnknownCommand):
		Logger.Debugf("Rejected request: %v", err)
		s.count("unknown", common.StatusError)
		return common.NewErrorResponse(common.MsgUnknownCommand)
	case err != nil:
		Logger.Debugf("Rejected request %q: %v", req, err)
		s.count("malformed", common.StatusError)
		return common.NewErrorResponse(common.MsgMalformedRequest)
	}

	// Let the adapter handle the request
	resp = s.adapter.Handle(s.ctx, msg, s.store)
	s.count(msg.Command.String(), resp.Status)
	return resp
}

// count increments the request counter for command and status
func (s *RPCServer) count(command, status string) {
	name := fmt.Sprintf(`ddict_requests_total{command=%q,status=%q}`, command, status)
	c, _ := s.counters.LoadOrCompute(name, func() *metrics.Counter {
		return metrics.GetOrCreateCounter(name)
	})
	c.Inc()
}

// observe records the handling duration of one request
func (s *RPCServer) observe(status string, start time.Time) {
	metrics.GetOrCreateHistogram(fmt.Sprintf(`ddict_request_duration_seconds{status=%q}`, status)).UpdateDuration(start)
}

// --------------------------------------------------------------------------
// Event sink
// --------------------------------------------------------------------------

// serverSink keeps the session gauge up to date and forwards events to the
// sink registered with SetEventSink (or logs them)
type serverSink struct {
	server *RPCServer
	next   transport.IEventSink
}

func (k *serverSink) OnLog(message string) {
	if k.next != nil {
		k.next.OnLog(message)
		return
	}
	Logger.Infof("%s", message)
}

func (k *serverSink) OnClientCountChanged(count int) {
	prev := k.server.sessions.Swap(int64(count))
	activeSessions.Add(int64(count) - prev)
	if k.next != nil {
		k.next.OnClientCountChanged(count)
	}
}
