package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/export"
	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/piwi3910/MoldQuote/internal/store"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

// ─── Library ───────────────────────────────────────────────

func (s *Server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.store.Materials(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.store.Machines(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, machines)
}

func (s *Server) handleSaveMaterial(w http.ResponseWriter, r *http.Request) {
	var m model.Material
	if err := decodeJSON(r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(m.Name) == "" {
		s.writeError(w, r, badRequest("material name is required"))
		return
	}
	if m.ID == "" {
		m.ID = model.NewID()
	}
	if err := s.store.SaveMaterial(r.Context(), m); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleSaveMachine(w http.ResponseWriter, r *http.Request) {
	var m model.Machine
	if err := decodeJSON(r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(m.Name) == "" {
		s.writeError(w, r, badRequest("machine name is required"))
		return
	}
	if m.ID == "" {
		m.ID = model.NewID()
	}
	if err := s.store.SaveMachine(r.Context(), m); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ─── RFQs ──────────────────────────────────────────────────

func (s *Server) handleListRFQs(w http.ResponseWriter, r *http.Request) {
	var status model.RFQStatus
	if q := r.URL.Query().Get("status"); q != "" {
		status = model.ParseRFQStatus(q)
	}
	list, err := s.store.Projects(r.Context(), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRFQ(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Project(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutRFQ(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p model.Project
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if p.ID != "" && p.ID != id {
		s.writeError(w, r, badRequest("body id %q does not match path id %q", p.ID, id))
		return
	}
	p.ID = id
	if err := prepareProject(&p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveProject(r.Context(), p, changedBy(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.store.Project(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// prepareProject fills generated fields of an incoming RFQ and checks that
// every tool references parts of the same RFQ.
func prepareProject(p *model.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return badRequest("rfq name is required")
	}
	p.Status = model.ParseRFQStatus(string(p.Status))
	now := time.Now().UTC().Truncate(time.Second)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.ModifiedAt = now
	if p.Parts == nil {
		p.Parts = []model.Part{}
	}
	if p.Tools == nil {
		p.Tools = []model.Tool{}
	}

	for i := range p.Parts {
		if p.Parts[i].ID == "" {
			p.Parts[i].ID = model.NewID()
		}
	}
	for i := range p.Tools {
		t := &p.Tools[i]
		if t.ID == "" {
			t.ID = model.NewID()
		}
		if t.Configurations == nil {
			t.Configurations = []model.ToolPartConfiguration{}
		}
		for j := range t.Configurations {
			c := &t.Configurations[j]
			if c.ID == "" {
				c.ID = model.NewID()
			}
			if p.FindPart(c.PartID) == nil {
				return badRequest("tool %q references unknown part %q", t.Name, c.PartID)
			}
		}
		if t.LegacyPartID != "" && p.FindPart(t.LegacyPartID) == nil {
			return badRequest("tool %q references unknown legacy part %q", t.Name, t.LegacyPartID)
		}
	}
	return nil
}

func (s *Server) handleDeleteRFQ(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Evaluation ────────────────────────────────────────────

// loadTool loads the RFQ and library of the request and resolves the tool
// named by the path.
func (s *Server) loadTool(r *http.Request) (model.Project, model.Library, model.ResolvedTool, error) {
	p, err := s.store.Project(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return model.Project{}, model.Library{}, model.ResolvedTool{}, err
	}
	toolID := chi.URLParam(r, "toolID")
	if p.FindTool(toolID) == nil {
		return model.Project{}, model.Library{}, model.ResolvedTool{}, fmt.Errorf("tool %q: %w", toolID, store.ErrNotFound)
	}
	lib, err := s.store.Library(r.Context())
	if err != nil {
		return model.Project{}, model.Library{}, model.ResolvedTool{}, err
	}
	rt, err := p.ResolveTool(toolID, lib)
	if err != nil {
		return model.Project{}, model.Library{}, model.ResolvedTool{}, fmt.Errorf("%w: %v", errUnprocessable, err)
	}
	return p, lib, rt, nil
}

func (s *Server) handleEvaluateTool(w http.ResponseWriter, r *http.Request) {
	_, lib, rt, err := s.loadTool(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	machineID := r.URL.Query().Get("machine_id")
	if machineID == "" {
		machineID = rt.Tool.MachineID
	}
	var machine *model.Machine
	if machineID != "" {
		machine = lib.FindMachineByID(machineID)
		if machine == nil {
			s.writeError(w, r, fmt.Errorf("machine %q: %w", machineID, store.ErrNotFound))
			return
		}
	}

	report, err := engine.Evaluate(rt, machine, s.policy)
	var fits *bool
	if err == nil && report.Fit != nil {
		fits = &report.Fit.Fits
	}
	s.metrics.RecordEvaluation(fits, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.LogEvaluation(rt.Tool.Name, report.MachineName, report.Fits(), len(report.Warnings))
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCompareMachines(w http.ResponseWriter, r *http.Request) {
	_, lib, rt, err := s.loadTool(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	results, err := engine.CompareMachines(rt, lib.Machines, s.policy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// ─── Exports ───────────────────────────────────────────────

func (s *Server) loadEvaluatedProject(r *http.Request) (model.Project, model.Library, []engine.ToolEvaluation, error) {
	p, err := s.store.Project(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return model.Project{}, model.Library{}, nil, err
	}
	lib, err := s.store.Library(r.Context())
	if err != nil {
		return model.Project{}, model.Library{}, nil, err
	}
	evals := engine.EvaluateProject(p, lib, s.policy)
	for _, ev := range evals {
		var fits *bool
		if ev.Report != nil && ev.Report.Fit != nil {
			fits = &ev.Report.Fit.Fits
		}
		s.metrics.RecordEvaluation(fits, ev.Err)
	}
	return p, lib, evals, nil
}

func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	p, lib, evals, err := s.loadEvaluatedProject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteExcel(&buf, p, lib, evals); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sendDocument(w, "xlsx", xlsxContentType, attachmentName(p.Name, "xlsx"), buf.Bytes())
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	p, _, evals, err := s.loadEvaluatedProject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(evals) == 0 {
		s.writeError(w, r, fmt.Errorf("%w: rfq has no tools to report", errUnprocessable))
		return
	}
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, p, evals); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sendDocument(w, "pdf", pdfContentType, attachmentName(p.Name, "pdf"), buf.Bytes())
}

func (s *Server) sendDocument(w http.ResponseWriter, format, contentType, filename string, data []byte) {
	s.metrics.RecordExport(format, len(data))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// attachmentName turns an RFQ name into a safe download file name.
func attachmentName(name, ext string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name))
	if strings.Trim(clean, "_") == "" {
		clean = "rfq"
	}
	return clean + "." + ext
}

// ─── Existing tools ────────────────────────────────────────

func (s *Server) handleListExistingTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.store.ExistingTools(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

func (s *Server) handleSaveExistingTool(w http.ResponseWriter, r *http.Request) {
	t := model.NewExistingTool("")
	t.ID = ""
	if err := decodeJSON(r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(t.Name) == "" {
		s.writeError(w, r, badRequest("tool name is required"))
		return
	}
	if t.ID == "" {
		t.ID = model.NewID()
	}
	if t.Cavities < 1 {
		s.writeError(w, r, &engine.InputError{Field: "cavities", Value: float64(t.Cavities), Err: engine.ErrInvalidDimension})
		return
	}
	if err := s.store.SaveExistingTool(r.Context(), t); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}
