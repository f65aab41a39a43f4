// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

// Package website serves the schema playground API: small JSON
// endpoints that validate data against a schema and convert schemas
// between their document and script forms.
package website

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/framelab/framecheck/pkg/cmd/ui"
	"github.com/framelab/framecheck/pkg/dataframe"
	"github.com/framelab/framecheck/pkg/schema"
	"github.com/framelab/framecheck/pkg/schemaio"
	"github.com/framelab/framecheck/pkg/script"
)

type ServerOpts struct {
	ListenAddr string
}

type Server struct {
	opts ServerOpts
}

func NewServer(opts ServerOpts) *Server {
	return &Server{opts}
}

func (s *Server) Mux() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.healthHandler)
	r.Post("/api/v1/validate", s.validateHandler)
	r.Post("/api/v1/convert", s.convertHandler)
	return r
}

func (s *Server) Run() error {
	server := &http.Server{
		Addr:    s.opts.ListenAddr,
		Handler: s.Mux(),
	}
	fmt.Printf("Listening on http://%s\n", server.Addr)
	return server.ListenAndServe()
}

type validateRequest struct {
	Schema       string `json:"schema"`
	SchemaFormat string `json:"schema_format,omitempty"`
	Data         string `json:"data"`
	DataFormat   string `json:"data_format,omitempty"`
}

type validateResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

func (s *Server) validateHandler(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := readJSON(r.Body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	warnings := &warningBuffer{}
	loaded, err := parseSchema(req.Schema, req.SchemaFormat, warnings.ui())
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	df, err := parseData(req.Data, req.DataFormat)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	report := loaded.Check(df)
	resp := validateResponse{Valid: !report.HasViolations(), Warnings: warnings.lines()}
	for _, violation := range report.Violations {
		resp.Violations = append(resp.Violations, violation.Error())
	}
	s.writeJSON(w, resp)
}

type convertRequest struct {
	Schema       string `json:"schema"`
	SchemaFormat string `json:"schema_format,omitempty"`
	To           string `json:"to"`
}

type convertResponse struct {
	Output   string   `json:"output"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) convertHandler(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := readJSON(r.Body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	warnings := &warningBuffer{}
	loaded, err := parseSchema(req.Schema, req.SchemaFormat, warnings.ui())
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	var out string
	switch req.To {
	case "", "yaml":
		out, err = schemaio.ToYAML(loaded, schemaio.Opts{UI: warnings.ui()})
	case "json":
		out, err = schemaio.ToJSON(loaded, schemaio.Opts{UI: warnings.ui()})
	case "script":
		out, err = script.Generate(loaded, script.Opts{UI: warnings.ui()})
	default:
		err = fmt.Errorf("unknown output form '%s' (expected yaml, json or script)", req.To)
	}
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.writeJSON(w, convertResponse{Output: out, Warnings: warnings.lines()})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func parseSchema(src, format string, u ui.UI) (*schema.Schema, error) {
	switch format {
	case "", "yaml", "json":
		// JSON is a YAML subset, one parse covers both
		return schemaio.FromYAML([]byte(src), schemaio.Opts{UI: u})
	case "script":
		return script.Execute("request", src, script.Opts{UI: u})
	default:
		return nil, fmt.Errorf("unknown schema format '%s' (expected yaml, json or script)", format)
	}
}

func parseData(src, format string) (*dataframe.DataFrame, error) {
	switch format {
	case "", "yaml":
		return dataframe.FromYAMLRecords([]byte(src))
	case "json":
		return dataframe.FromJSONRecords([]byte(src))
	case "toml":
		return dataframe.FromTOMLRecords([]byte(src))
	default:
		return nil, fmt.Errorf("unknown data format '%s' (expected yaml, json or toml)", format)
	}
}

func readJSON(body io.Reader, dst interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("reading request body: %s", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, val interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(val)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// warningBuffer collects warnings emitted while a request is served so
// they can ride along in the response instead of the server log.
type warningBuffer struct {
	buf strings.Builder
}

func (b *warningBuffer) ui() ui.UI {
	return ui.NewCustomWriterTTY(false, &b.buf, &b.buf)
}

func (b *warningBuffer) lines() []string {
	text := strings.TrimSpace(b.buf.String())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
