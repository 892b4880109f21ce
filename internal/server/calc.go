package server

import (
	"net/http"
	"strconv"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

// positive fails with ErrInvalidDimension when v is not strictly positive.
func positive(field string, v float64) error {
	if v <= 0 {
		return &engine.InputError{Field: field, Value: v, Err: engine.ErrInvalidDimension}
	}
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// calc decodes a request of type Req, runs fn and writes its result.
func calc[Req any](s *Server, name string, fn func(*http.Request, Req) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := decodeJSON(r, &req); err != nil {
			s.metrics.RecordCalculationError(name, "decode")
			s.writeError(w, r, err)
			return
		}
		res, err := fn(r, req)
		if err != nil {
			s.metrics.RecordCalculationError(name, errorKind(err))
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func errorKind(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusUnprocessableEntity:
		return "unprocessable"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

type clampingForceRequest struct {
	AreaCM2        float64  `json:"area_cm2"`
	Cavities       int      `json:"cavities"`
	PressureBar    *float64 `json:"pressure_bar,omitempty"`
	MaterialID     string   `json:"material_id,omitempty"`
	UseMaxPressure bool     `json:"use_max_pressure"`
	SafetyFactor   *float64 `json:"safety_factor,omitempty"`
}

type clampingForceResponse struct {
	ForceKN        float64               `json:"force_kn"`
	Tonnes         float64               `json:"tonnes"`
	PressureBar    float64               `json:"pressure_bar"`
	PressureSource engine.PressureSource `json:"pressure_source"`
	SafetyFactor   float64               `json:"safety_factor"`
}

func (s *Server) handleClampingForce(w http.ResponseWriter, r *http.Request) {
	calc(s, "clamping_force", func(r *http.Request, req clampingForceRequest) (any, error) {
		if err := firstErr(
			positive("area_cm2", req.AreaCM2),
			positive("cavities", float64(req.Cavities)),
		); err != nil {
			return nil, err
		}
		var material *model.Material
		if req.MaterialID != "" {
			m, err := s.store.Material(r.Context(), req.MaterialID)
			if err != nil {
				return nil, err
			}
			material = &m
		}
		pressure, source, err := engine.ResolvePressure(material, req.PressureBar, req.UseMaxPressure)
		if err != nil {
			return nil, err
		}
		sf := s.policy.Clamping.SafetyFactor
		if v, ok := model.Positive(req.SafetyFactor); ok {
			sf = v
		}
		force := engine.ClampingForce(req.AreaCM2, pressure, req.Cavities, sf)
		return clampingForceResponse{
			ForceKN:        force,
			Tonnes:         force / 10,
			PressureBar:    pressure,
			PressureSource: source,
			SafetyFactor:   sf,
		}, nil
	})(w, r)
}

type injectionPressureRequest struct {
	WallThicknessMM float64 `json:"wall_thickness_mm"`
	FlowLengthMM    float64 `json:"flow_length_mm"`
}

func (s *Server) handleInjectionPressure(w http.ResponseWriter, r *http.Request) {
	calc(s, "injection_pressure", func(_ *http.Request, req injectionPressureRequest) (any, error) {
		if req.FlowLengthMM < 0 {
			return nil, badRequest("flow_length_mm must not be negative")
		}
		p := engine.EstimateInjectionPressure(req.WallThicknessMM, req.FlowLengthMM, s.policy.Clamping)
		return map[string]float64{"pressure_bar": p}, nil
	})(w, r)
}

type machineSizeRequest struct {
	ForceKN float64 `json:"force_kn"`
}

func (s *Server) handleMachineSize(w http.ResponseWriter, r *http.Request) {
	calc(s, "machine_size", func(_ *http.Request, req machineSizeRequest) (any, error) {
		if err := positive("force_kn", req.ForceKN); err != nil {
			return nil, err
		}
		return engine.RecommendMachineSize(req.ForceKN, s.policy.Clamping), nil
	})(w, r)
}

type shotPart struct {
	Name      string   `json:"name"`
	VolumeCM3 *float64 `json:"volume_cm3"`
	Cavities  int      `json:"cavities"`
}

type shotVolumeRequest struct {
	Parts         []shotPart `json:"parts"`
	RunnerPercent *float64   `json:"runner_percent,omitempty"`
}

func (s *Server) handleShotVolume(w http.ResponseWriter, r *http.Request) {
	calc(s, "shot_volume", func(_ *http.Request, req shotVolumeRequest) (any, error) {
		if len(req.Parts) == 0 {
			return nil, &engine.InputError{Field: "parts", Err: engine.ErrMissingInput}
		}
		assignments := make([]model.Assignment, 0, len(req.Parts))
		for i, p := range req.Parts {
			if err := positive("cavities", float64(p.Cavities)); err != nil {
				return nil, err
			}
			part := model.NewPart(p.Name)
			if part.Name == "" {
				part.Name = "Part " + strconv.Itoa(i+1)
			}
			part.VolumeCM3 = p.VolumeCM3
			assignments = append(assignments, model.Assignment{
				Config: model.NewToolPartConfiguration(part.ID, p.Cavities),
				Part:   part,
			})
		}
		runner := s.policy.Shot.RunnerPercent
		if req.RunnerPercent != nil {
			if *req.RunnerPercent < 0 {
				return nil, badRequest("runner_percent must not be negative")
			}
			runner = *req.RunnerPercent
		}
		return engine.ShotVolume(assignments, runner), nil
	})(w, r)
}

type barrelUsageRequest struct {
	ShotCM3   float64  `json:"shot_cm3"`
	BarrelCM3 *float64 `json:"barrel_cm3"`
}

func (s *Server) handleBarrelUsage(w http.ResponseWriter, r *http.Request) {
	calc(s, "barrel_usage", func(_ *http.Request, req barrelUsageRequest) (any, error) {
		if req.ShotCM3 < 0 {
			return nil, &engine.InputError{Field: "shot_cm3", Value: req.ShotCM3, Err: engine.ErrInvalidDimension}
		}
		return engine.BarrelUsage(req.ShotCM3, req.BarrelCM3, s.policy.Shot), nil
	})(w, r)
}

type screwRatioRequest struct {
	StrokeMM   float64 `json:"stroke_mm"`
	DiameterMM float64 `json:"diameter_mm"`
}

func (s *Server) handleScrewRatio(w http.ResponseWriter, r *http.Request) {
	calc(s, "screw_ratio", func(_ *http.Request, req screwRatioRequest) (any, error) {
		return engine.CheckScrewRatio(req.StrokeMM, req.DiameterMM, s.policy.Screw)
	})(w, r)
}

type demandCheckRequest struct {
	AnnualDemand int     `json:"annual_demand"`
	CycleTimeS   float64 `json:"cycle_time_s"`
	Cavities     int     `json:"cavities"`
}

func (s *Server) handleDemandCheck(w http.ResponseWriter, r *http.Request) {
	calc(s, "demand_check", func(_ *http.Request, req demandCheckRequest) (any, error) {
		if req.AnnualDemand < 0 {
			return nil, badRequest("annual_demand must not be negative")
		}
		return engine.CheckDemand(req.AnnualDemand, req.CycleTimeS, req.Cavities, s.policy.Demand)
	})(w, r)
}

type cavityRecommendationRequest struct {
	AnnualDemand int     `json:"annual_demand"`
	CycleTimeS   float64 `json:"cycle_time_s"`
}

func (s *Server) handleCavityRecommendation(w http.ResponseWriter, r *http.Request) {
	calc(s, "cavity_recommendation", func(_ *http.Request, req cavityRecommendationRequest) (any, error) {
		if err := positive("cycle_time_s", req.CycleTimeS); err != nil {
			return nil, err
		}
		if req.AnnualDemand < 0 {
			return nil, badRequest("annual_demand must not be negative")
		}
		n := engine.RecommendCavities(req.AnnualDemand, req.CycleTimeS, s.policy.Demand)
		return map[string]int{"recommended_cavities": n}, nil
	})(w, r)
}

type cycleTimeRequest struct {
	WallThicknessMM float64  `json:"wall_thickness_mm"`
	MaterialFamily  string   `json:"material_family"`
	VolumeCM3       *float64 `json:"volume_cm3,omitempty"`
	HotRunner       bool     `json:"hot_runner"`
	Cavities        int      `json:"cavities,omitempty"`
	AnnualDemand    int      `json:"annual_demand,omitempty"`
}

type cycleTimeResponse struct {
	CycleTimeS         float64 `json:"cycle_time_s"`
	ShotsPerHour       float64 `json:"shots_per_hour"`
	CoolingFactor      float64 `json:"cooling_factor"`
	PartsPerHour       float64 `json:"parts_per_hour,omitempty"`       // with cavities
	AnnualMachineHours float64 `json:"annual_machine_hours,omitempty"` // with cavities and annual_demand
}

func (s *Server) handleCycleTime(w http.ResponseWriter, r *http.Request) {
	calc(s, "cycle_time", func(_ *http.Request, req cycleTimeRequest) (any, error) {
		if err := positive("wall_thickness_mm", req.WallThicknessMM); err != nil {
			return nil, err
		}
		if req.Cavities < 0 {
			return nil, &engine.InputError{Field: "cavities", Value: float64(req.Cavities), Err: engine.ErrInvalidDimension}
		}
		if req.AnnualDemand < 0 {
			return nil, &engine.InputError{Field: "annual_demand", Value: float64(req.AnnualDemand), Err: engine.ErrInvalidDimension}
		}
		ct := engine.EstimateCycleTime(req.WallThicknessMM, req.MaterialFamily, req.VolumeCM3, req.HotRunner)
		resp := cycleTimeResponse{
			CycleTimeS:    ct,
			ShotsPerHour:  engine.ShotsPerHour(ct),
			CoolingFactor: engine.CoolingFactor(req.MaterialFamily),
		}
		if req.Cavities > 0 {
			resp.PartsPerHour = engine.PartsPerHour(ct, req.Cavities)
			if req.AnnualDemand > 0 {
				resp.AnnualMachineHours = engine.AnnualMachineHours(req.AnnualDemand, ct, req.Cavities, s.policy.Demand.Efficiency)
			}
		}
		return resp, nil
	})(w, r)
}

type toolDimensionsRequest struct {
	LengthMM float64             `json:"length_mm"`
	WidthMM  float64             `json:"width_mm"`
	DepthMM  float64             `json:"depth_mm"`
	Cavities int                 `json:"cavities"`
	Layout   engine.CavityLayout `json:"layout,omitempty"`
}

func (s *Server) handleToolDimensions(w http.ResponseWriter, r *http.Request) {
	calc(s, "tool_dimensions", func(_ *http.Request, req toolDimensionsRequest) (any, error) {
		if err := firstErr(
			positive("length_mm", req.LengthMM),
			positive("width_mm", req.WidthMM),
			positive("depth_mm", req.DepthMM),
			positive("cavities", float64(req.Cavities)),
		); err != nil {
			return nil, err
		}
		switch req.Layout {
		case "":
			req.Layout = engine.LayoutGrid
		case engine.LayoutLinear, engine.LayoutSquare, engine.LayoutGrid:
		default:
			return nil, badRequest("unknown layout %q", req.Layout)
		}
		return engine.EstimateToolDimensions(req.LengthMM, req.WidthMM, req.DepthMM, req.Cavities, req.Layout), nil
	})(w, r)
}

type machineFitRequest struct {
	MachineID string         `json:"machine_id,omitempty"`
	Machine   *model.Machine `json:"machine,omitempty"`
	engine.FitInput
}

func (s *Server) handleMachineFit(w http.ResponseWriter, r *http.Request) {
	calc(s, "machine_fit", func(r *http.Request, req machineFitRequest) (any, error) {
		var machine model.Machine
		switch {
		case req.Machine != nil:
			machine = *req.Machine
		case req.MachineID != "":
			m, err := s.store.Machine(r.Context(), req.MachineID)
			if err != nil {
				return nil, err
			}
			machine = m
		default:
			return nil, badRequest("machine_id or machine is required")
		}
		return engine.CheckMachineFit(req.FitInput, machine, s.policy.Fit), nil
	})(w, r)
}
