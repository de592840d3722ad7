package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/api"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/config"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/lifecycle"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/logging"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/script"
)

// longPollCeiling bounds event long-polls below the CLI client's timeout.
const longPollCeiling = 25 * time.Second

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	itemSvc *api.ContentService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		daemon:  d,
		itemSvc: api.NewContentService(d.orch.Store()),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/items", srv.handleItems)
	mux.HandleFunc("/api/items/", srv.handleItem)
	mux.HandleFunc("/api/events", srv.handleEvents)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DBPath:       status.DBPath,
		LockFilePath: status.LockFilePath,
		PublisherOK:  status.PublisherOK,
		Counts:       api.MergeStats(status.Stats),
		Total:        status.Health.Total,
		Errored:      status.Health.Errored,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listItems(w, r)
	case http.MethodPost:
		s.ingestItem(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listItems(w http.ResponseWriter, r *http.Request) {
	var states []content.State
	for _, value := range r.URL.Query()["state"] {
		state, ok := content.ParseState(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown state %q", value))
			return
		}
		states = append(states, state)
	}

	items, err := s.itemSvc.List(r.Context(), states...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for i := range items {
		items[i].UploadInFlight = s.daemon.orch.UploadInFlight(items[i].ID)
	}
	s.writeJSON(w, http.StatusOK, api.ItemListResponse{Items: items})
}

func (s *apiServer) ingestItem(w http.ResponseWriter, r *http.Request) {
	var req api.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := s.daemon.orch.Ingest(r.Context(), req.Script)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.ItemResponse{Item: api.FromContentItem(item, true)})
}

func (s *apiServer) handleItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/items/")
	idStr, verb, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if verb == "" {
		switch r.Method {
		case http.MethodGet:
			s.describeItem(w, r, id)
		case http.MethodDelete:
			s.removeItem(w, r, id)
		default:
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	s.handleItemAction(w, r, id, verb)
}

func (s *apiServer) describeItem(w http.ResponseWriter, r *http.Request, id int64) {
	item, err := s.itemSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	item.UploadInFlight = s.daemon.orch.UploadInFlight(id)
	s.writeJSON(w, http.StatusOK, api.ItemResponse{Item: *item})
}

func (s *apiServer) removeItem(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.daemon.orch.Remove(r.Context(), id); err != nil {
		s.writeOperationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *apiServer) handleItemAction(w http.ResponseWriter, r *http.Request, id int64, verb string) {
	orch := s.daemon.orch
	ctx := r.Context()

	var (
		item *content.Item
		err  error
	)

	switch {
	case verb == "script" && r.Method == http.MethodPut:
		var req api.IngestRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		item, err = orch.ReplaceScript(ctx, id, req.Script)
	case verb == "finalize" && r.Method == http.MethodPost:
		item, err = orch.FinalizeScript(ctx, id)
	case verb == "video" && r.Method == http.MethodPost:
		var req api.AttachRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		item, err = orch.AttachVideo(ctx, id, req.VideoRef)
	case verb == "upload" && r.Method == http.MethodPost:
		var req api.UploadRequest
		if r.ContentLength != 0 {
			if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
				s.writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}
		var meta *publish.Metadata
		if req.MetadataPath != "" {
			loaded, loadErr := publish.LoadMetadata(req.MetadataPath)
			if loadErr != nil {
				s.writeError(w, http.StatusBadRequest, loadErr.Error())
				return
			}
			meta = &loaded
		}
		item, err = orch.StartUpload(ctx, id, meta)
	case verb == "schedule" && r.Method == http.MethodPost:
		var req api.ScheduleRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		item, err = orch.Schedule(ctx, id, req.At)
	case verb == "retry" && r.Method == http.MethodPost:
		item, err = orch.Retry(ctx, id)
	case verb == "cancel" && r.Method == http.MethodPost:
		item, err = orch.Cancel(ctx, id)
	case verb == "fail" && r.Method == http.MethodPost:
		var req api.FailRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		item, err = orch.MarkFailed(ctx, id, req.Detail)
	default:
		s.writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	dto := api.FromContentItem(item, false)
	dto.UploadInFlight = orch.UploadInFlight(id)
	s.writeJSON(w, http.StatusOK, api.ItemResponse{Item: dto})
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 200
	}
	follow := query.Get("follow") == "1" || strings.EqualFold(query.Get("follow"), "true")

	ctx := r.Context()
	if follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, longPollCeiling)
		defer cancel()
	}

	evts, next, err := s.daemon.orch.Bus().Fetch(ctx, since, limit, follow)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.EventStreamResponse{
		Events: api.FromEvents(evts),
		Next:   next,
	})
}

// writeOperationError maps lifecycle and store failures onto HTTP statuses.
func (s *apiServer) writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrUploadInProgress), errors.Is(err, content.ErrVersionConflict), errors.Is(err, content.ErrNotRemovable):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrNotErrored), errors.Is(err, lifecycle.ErrScheduleInPast):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, publish.ErrAuthExpired):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, script.ErrEmptyInput), errors.Is(err, script.ErrMissingTitle), errors.Is(err, script.ErrUnlabeledContent):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
