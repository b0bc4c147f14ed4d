package apiserver

// registerRoutes wires every API endpoint to its handler.
func (s *Server) registerRoutes() {
	s.router.Use(s.requestID)

	api := s.router.PathPrefix("/api/v1alpha1").Subrouter()

	// Health
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	// Commands
	api.HandleFunc("/resolve", s.handleResolve).Methods("POST")
	api.HandleFunc("/run", s.handleRun).Methods("POST")
	api.HandleFunc("/commands", s.handleDispatch).Methods("POST")
	api.HandleFunc("/search", s.handleSearch).Methods("POST")

	// Tools
	api.HandleFunc("/tools", s.handleListTools).Methods("GET")
	api.HandleFunc("/tools/{name}", s.handleGetTool).Methods("GET")
}
