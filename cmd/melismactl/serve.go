package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"melisma/pkg/melisma"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the melody engine over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		handler := cors.Default().Handler(newRouter(client))
		server := &http.Server{
			Addr:              serveFlags.addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}
		fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", serveFlags.addr)
		return server.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

// generatePayload is the POST /api/generate request body.
type generatePayload struct {
	Preset          string             `json:"preset"`
	Chords          []string           `json:"chords"`
	Population      int                `json:"population"`
	Generations     int                `json:"generations"`
	EliteCount      int                `json:"elite_count"`
	MutationRate    float64            `json:"mutation_rate"`
	Pairing         string             `json:"pairing"`
	Workers         int                `json:"workers"`
	Seed            int64              `json:"seed"`
	WeightOverrides map[string]float64 `json:"weight_overrides"`
}

func newRouter(client *melisma.Client) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/api/presets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, client.Presets(r.Context()))
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, client.Metrics(r.Context()))
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/pairings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, client.Pairings(r.Context()))
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %w", err))
				return
			}
			limit = parsed
		}
		runs, err := client.Runs(r.Context(), melisma.RunsRequest{Limit: limit})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/runs/{id}/history", func(w http.ResponseWriter, r *http.Request) {
		history, err := client.FitnessHistory(r.Context(), melisma.FitnessHistoryRequest{
			RunID: mux.Vars(r)["id"],
		})
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/runs/{id}/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		diagnostics, err := client.Diagnostics(r.Context(), melisma.DiagnosticsRequest{
			RunID: mux.Vars(r)["id"],
		})
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, diagnostics)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/runs/{id}/top", func(w http.ResponseWriter, r *http.Request) {
		top, err := client.TopGenomes(r.Context(), melisma.TopGenomesRequest{
			RunID: mux.Vars(r)["id"],
		})
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, top)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var payload generatePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		summary, err := client.Generate(r.Context(), melisma.GenerateRequest{
			Preset:          payload.Preset,
			Chords:          payload.Chords,
			Population:      payload.Population,
			Generations:     payload.Generations,
			EliteCount:      payload.EliteCount,
			MutationRate:    payload.MutationRate,
			Pairing:         payload.Pairing,
			Workers:         payload.Workers,
			Seed:            payload.Seed,
			WeightOverrides: payload.WeightOverrides,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}).Methods(http.MethodPost)

	return router
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
