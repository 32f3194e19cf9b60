package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/Kirkezz/parkour-analyzer/internal/api"
	"github.com/Kirkezz/parkour-analyzer/internal/daemon"
	"github.com/Kirkezz/parkour-analyzer/internal/logging"
	"github.com/Kirkezz/parkour-analyzer/internal/logs"
	"github.com/Kirkezz/parkour-analyzer/internal/services"
)

// maxEventsWait caps how long a single Events call may block.
const maxEventsWait = 30 * time.Second

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server
	svc       *service

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Parkour", svc); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		svc:       svc,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// OnShutdown registers a callback invoked after a Stop RPC so the hosting
// process can exit. Set it before Serve.
func (s *Server) OnShutdown(fn func()) {
	s.svc.shutdown = fn
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String("impact", "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String("impact", "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun parkour stop"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

// opCtx annotates the server context for one RPC so daemon log lines can be
// tied back to the request that caused them.
func (s *service) opCtx() context.Context {
	ctx := services.WithTransport(s.ctx, services.TransportIPC)
	return services.WithRequestID(ctx, uuid.NewString())
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.PID = os.Getpid()
	resp.SessionID = s.daemon.SessionID()
	resp.Running = s.daemon.Running()
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.SessionID = status.SessionID
	resp.StartedAt = api.FormatTime(status.StartedAt)
	resp.SocketPath = status.SocketPath
	resp.LockPath = status.LockFilePath
	resp.LogPath = status.LogPath
	resp.APIBind = status.APIBind
	resp.Watch = api.FromWatchStatus(status.Watch)
	return nil
}

func (s *service) LogContent(_ LogContentRequest, resp *LogContentResponse) error {
	path, snap, err := s.daemon.LogContent(s.opCtx())
	if err != nil {
		return err
	}
	resp.Path = path
	resp.Content = snap.Content
	resp.Fingerprint = snap.Fingerprint
	return nil
}

func (s *service) LogLocation(_ LogLocationRequest, resp *LogLocationResponse) error {
	path, err := s.daemon.LogLocation(s.opCtx())
	if err != nil {
		return err
	}
	resp.Path = path
	return nil
}

func (s *service) DefaultPaths(_ DefaultPathsRequest, resp *DefaultPathsResponse) error {
	resp.Candidates = api.FromCandidates(s.daemon.DefaultPaths(), s.daemon.ValidatePath)
	if path, err := s.daemon.LogLocation(s.opCtx()); err == nil {
		resp.Active = path
	}
	return nil
}

func (s *service) ValidatePath(req ValidatePathRequest, resp *ValidatePathResponse) error {
	resp.Path = req.Path
	resp.Valid = s.daemon.ValidatePath(req.Path)
	return nil
}

func (s *service) Probe(req ProbeRequest, resp *ProbeResponse) error {
	s.log().Debug("probe requested", logging.String(logging.FieldPath, req.Path))
	if err := s.daemon.Probe(s.opCtx(), req.Path); err != nil {
		return err
	}
	resp.Announced = true
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	hub := s.daemon.EventStream()

	ctx := s.ctx
	wait := req.WaitMillis > 0
	if wait {
		waitFor := time.Duration(req.WaitMillis) * time.Millisecond
		if waitFor > maxEventsWait {
			waitFor = maxEventsWait
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, waitFor)
		defer cancel()
	}

	batch, next, err := hub.Fetch(ctx, req.Since, req.Limit, wait)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	resp.Events = batch
	resp.Next = next
	resp.First = hub.FirstSequence()
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.opCtx())
	resp.Sent = sent
	resp.Message = message
	return err
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	if s.shutdown != nil {
		shutdown := s.shutdown
		go func() {
			// Let the RPC response flush before the process tears down.
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	}
	return nil
}
