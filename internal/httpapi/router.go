package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{DB: d.DB}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Jobs
	jh := JobsHandler{Deps: d}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  jh.List,
		http.MethodPost: jh.Create,
	}))
	mux.HandleFunc("/jobs/prefill", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: jh.Prefill,
	}))
	mux.HandleFunc("/jobs/", jh.ByPath) // /jobs/{id}, /jobs/{id}/status

	// Formulas
	fh := FormulasHandler{Deps: d}
	mux.HandleFunc("/formulas", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  fh.List,
		http.MethodPost: fh.Create,
	}))
	mux.HandleFunc("/formulas/", fh.ByPath)

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	dh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.Checkpoint,
	}))

	return mux
}

// Handler is the mux wrapped in the standard middleware chain.
func Handler(mux http.Handler) http.Handler {
	return Chain(mux, RequestID, AccessLog, Recover, Cors)
}
