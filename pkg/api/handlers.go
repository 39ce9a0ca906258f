package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/dbckit/pkg/logging"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000

	unknownTable = "unknown"
)

// Server holds the API server state
type Server struct {
	catalog Catalog
	config  ServerConfig
	metrics *Metrics
	logger  *logging.Logger
}

// NewServer creates a new API server
func NewServer(catalog Catalog, config ServerConfig, metrics *Metrics, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoopLogger()
	}
	return &Server{
		catalog: catalog,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil {
		s.metrics.RecordHealthCheck(true)
	}
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// load fetches a table from the catalog and writes the error response
// itself when that fails.
func (s *Server) load(w http.ResponseWriter, r *http.Request, name string) (*LoadedTable, bool) {
	start := time.Now()
	lt, err := s.catalog.Load(name)
	if s.metrics != nil {
		s.metrics.RecordTableLoad(tableLabel(lt, err), rowCount(lt), err, time.Since(start))
	}

	switch {
	case errors.Is(err, ErrTableNotFound):
		sendError(w, fmt.Sprintf("Table %s not found", name), http.StatusNotFound)
		return nil, false
	case err != nil:
		s.logger.WithTable(name).ErrorContext(r.Context(), "failed to load table", "error", err)
		sendError(w, "Failed to load table", http.StatusInternalServerError)
		return nil, false
	}
	return lt, true
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	infos := make([]TableInfo, 0)
	for _, name := range s.catalog.Names() {
		lt, err := s.catalog.Load(name)
		if errors.Is(err, ErrTableNotFound) {
			continue
		}
		if err != nil {
			s.logger.WithTable(name).WarnContext(r.Context(), "skipping table", "error", err)
			continue
		}
		infos = append(infos, infoFor(lt))
	}
	sendSuccess(w, infos)
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		sendError(w, "Invalid offset parameter", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil || limit < 1 || limit > maxPageSize {
		sendError(w, fmt.Sprintf("Invalid limit parameter (1-%d)", maxPageSize), http.StatusBadRequest)
		return
	}

	lt, ok := s.load(w, r, name)
	if !ok {
		return
	}

	t := lt.Table
	end := min(offset+limit, t.Len())
	rows := make([]map[string]any, 0, max(end-offset, 0))
	for i := offset; i < end; i++ {
		rows = append(rows, t.RowMap(t.Rows[i]))
	}

	sendSuccess(w, TableResponse{
		TableInfo: infoFor(lt),
		Offset:    offset,
		Limit:     limit,
		Rows:      rows,
	})
}

func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		sendError(w, "Invalid row id", http.StatusBadRequest)
		return
	}

	lt, ok := s.load(w, r, name)
	if !ok {
		return
	}

	t := lt.Table
	if t.Schema.PrimaryKey() < 0 {
		sendError(w, fmt.Sprintf("Table %s has no primary key", t.Schema.Name), http.StatusBadRequest)
		return
	}

	row, found := lt.Get(id)
	if s.metrics != nil {
		s.metrics.RecordRowLookup(t.Schema.Name, found)
	}
	if !found {
		sendError(w, fmt.Sprintf("Row %d not found in %s", id, t.Schema.Name), http.StatusNotFound)
		return
	}
	sendSuccess(w, t.RowMap(row))
}

// tableLabel names the table for metrics. Request paths never become label
// values, so unknown names all share one series.
func tableLabel(lt *LoadedTable, err error) string {
	if lt != nil {
		return lt.Table.Schema.Name
	}
	var le *LoadError
	if errors.As(err, &le) {
		return le.Table
	}
	return unknownTable
}

func rowCount(lt *LoadedTable) int {
	if lt == nil {
		return 0
	}
	return lt.Table.Len()
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
