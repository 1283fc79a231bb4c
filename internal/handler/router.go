package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(thesisHandler *ThesisHandler) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"thesis-catalog"}`))
	}).Methods("GET")

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/theses", thesisHandler.Search).Methods("GET")
	api.HandleFunc("/theses", thesisHandler.Ingest).Methods("POST")
	api.HandleFunc("/theses", thesisHandler.DeleteAll).Methods("DELETE")
	api.HandleFunc("/theses/preview", thesisHandler.Preview).Methods("POST")
	api.HandleFunc("/theses/{id}", thesisHandler.Get).Methods("GET")
	api.HandleFunc("/theses/{id}", thesisHandler.Update).Methods("PUT")
	api.HandleFunc("/theses/{id}", thesisHandler.Delete).Methods("DELETE")
	api.HandleFunc("/theses/{id}/abstract", thesisHandler.AbstractImages).Methods("GET")
	api.HandleFunc("/filters", thesisHandler.Filters).Methods("GET")
	api.HandleFunc("/stats", thesisHandler.Stats).Methods("GET")
	api.HandleFunc("/export", thesisHandler.Export).Methods("POST")

	// Configure CORS for the read-only web view
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		MaxAge: 300,
	})

	return c.Handler(router)
}
