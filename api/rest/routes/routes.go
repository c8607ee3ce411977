package routes

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/api/rest/handlers"
)

// Deps bundles the wired dependencies the route tree needs.
type Deps struct {
	Jobs       handlers.JobStore
	Endpoints  handlers.EndpointStore
	Launcher   handlers.Launcher
	Autoscaler handlers.Autoscaler
	Objects    handlers.ObjectStore
	Endpoint   handlers.EndpointConfig
	S3Bucket   string
	Log        zerolog.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, deps Deps) {
	jobHandler := handlers.NewJobHandler(deps.Jobs, deps.Launcher, deps.S3Bucket, deps.Log)
	endpointHandler := handlers.NewEndpointHandler(deps.Endpoints, deps.Launcher, deps.Autoscaler, deps.Objects, deps.Endpoint, deps.Log)

	r.Use(handlers.Recover(deps.Log))

	// Job endpoints
	r.HandleFunc("/jobs", jobHandler.SubmitJob).Methods("POST")
	r.HandleFunc("/jobs", jobHandler.ListJobs).Methods("GET")
	r.HandleFunc("/jobs/{job_id}", jobHandler.GetJobStatus).Methods("GET")

	// Endpoint endpoints
	r.HandleFunc("/endpoints", endpointHandler.CreateEndpoint).Methods("POST")
	r.HandleFunc("/endpoints", endpointHandler.GetEndpointStatus).Methods("GET")
	r.HandleFunc("/endpoints/{endpoint_name}", endpointHandler.GetEndpointStatus).Methods("GET")
	r.HandleFunc("/endpoints/{endpoint_name}", endpointHandler.DeleteEndpoint).Methods("DELETE")

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods("GET")
}
