package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/aUsernamePNG/WebSpectrometer/internal/api/handlers"
	"github.com/aUsernamePNG/WebSpectrometer/internal/config"
	"github.com/aUsernamePNG/WebSpectrometer/internal/pipeline"
	"github.com/aUsernamePNG/WebSpectrometer/internal/recording"
	"github.com/aUsernamePNG/WebSpectrometer/internal/repository"
	"github.com/aUsernamePNG/WebSpectrometer/internal/storage"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, pipe *pipeline.Pipeline, recorder *recording.Recorder, sessionRepo repository.SessionRepository, store storage.ArtifactStore, recordingDefaults config.RecordingConfig) {
	// Initialize handlers
	spectrumHandler := handlers.NewSpectrumHandler(pipe, store)
	recordingHandler := handlers.NewRecordingHandler(recorder, sessionRepo, store, recordingDefaults)

	// Spectrum routes
	huma.Register(api, huma.Operation{
		OperationID: "getSpectrum",
		Method:      http.MethodGet,
		Path:        "/api/spectrum",
		Summary:     "Get the current spectrum",
		Description: "Returns the latest spectral frame together with the full view state",
		Tags:        []string{"Spectrum"},
	}, spectrumHandler.GetSpectrum)

	huma.Register(api, huma.Operation{
		OperationID: "setCalibration",
		Method:      http.MethodPut,
		Path:        "/api/spectrum/calibration",
		Summary:     "Set wavelength calibration",
		Description: "Replaces the two-point pixel-to-wavelength calibration and resets the display range",
		Tags:        []string{"Spectrum"},
	}, spectrumHandler.SetCalibration)

	huma.Register(api, huma.Operation{
		OperationID: "setDisplayRange",
		Method:      http.MethodPut,
		Path:        "/api/spectrum/display-range",
		Summary:     "Set the visible wavelength window",
		Description: "Sets the display range explicitly, clamped to the sensor range",
		Tags:        []string{"View"},
	}, spectrumHandler.SetDisplayRange)

	huma.Register(api, huma.Operation{
		OperationID: "zoom",
		Method:      http.MethodPost,
		Path:        "/api/spectrum/zoom",
		Summary:     "Zoom about the cursor",
		Description: "Scales the visible span about the wavelength under the cursor",
		Tags:        []string{"View"},
	}, spectrumHandler.Zoom)

	huma.Register(api, huma.Operation{
		OperationID: "hover",
		Method:      http.MethodGet,
		Path:        "/api/spectrum/hover",
		Summary:     "Get spectrum values under the cursor",
		Tags:        []string{"View"},
	}, spectrumHandler.Hover)

	huma.Register(api, huma.Operation{
		OperationID: "nearestPeak",
		Method:      http.MethodGet,
		Path:        "/api/spectrum/peak",
		Summary:     "Find the nearest peak to the cursor",
		Tags:        []string{"View"},
	}, spectrumHandler.NearestPeak)

	huma.Register(api, huma.Operation{
		OperationID: "setReversed",
		Method:      http.MethodPut,
		Path:        "/api/spectrum/reversed",
		Summary:     "Flip the wavelength axis direction",
		Tags:        []string{"View"},
	}, spectrumHandler.SetReversed)

	huma.Register(api, huma.Operation{
		OperationID: "setCalibrationLines",
		Method:      http.MethodPut,
		Path:        "/api/spectrum/calibration-lines",
		Summary:     "Toggle calibration line overlays",
		Tags:        []string{"View"},
	}, spectrumHandler.SetCalibrationLines)

	huma.Register(api, huma.Operation{
		OperationID: "setROI",
		Method:      http.MethodPut,
		Path:        "/api/spectrum/roi",
		Summary:     "Set the extraction region",
		Description: "Replaces the pixel region averaged into the spectrum",
		Tags:        []string{"Spectrum"},
	}, spectrumHandler.SetROI)

	huma.Register(api, huma.Operation{
		OperationID: "setQEProfile",
		Method:      http.MethodPut,
		Path:        "/api/spectrum/qe-profile",
		Summary:     "Select the quantum-efficiency profile",
		Tags:        []string{"Spectrum"},
	}, spectrumHandler.SetQEProfile)

	huma.Register(api, huma.Operation{
		OperationID: "pause",
		Method:      http.MethodPost,
		Path:        "/api/spectrum/pause",
		Summary:     "Pause live extraction",
		Tags:        []string{"Spectrum"},
	}, spectrumHandler.Pause)

	huma.Register(api, huma.Operation{
		OperationID: "resume",
		Method:      http.MethodPost,
		Path:        "/api/spectrum/resume",
		Summary:     "Resume live extraction",
		Tags:        []string{"Spectrum"},
	}, spectrumHandler.Resume)

	huma.Register(api, huma.Operation{
		OperationID: "uploadImage",
		Method:      http.MethodPost,
		Path:        "/api/spectrum/image",
		Summary:     "Process an uploaded image",
		Description: "Runs a single pipeline pass over an uploaded PNG or JPEG and pauses live capture",
		Tags:        []string{"Spectrum"},
	}, spectrumHandler.UploadImage)

	huma.Register(api, huma.Operation{
		OperationID: "exportSpectrum",
		Method:      http.MethodPost,
		Path:        "/api/spectrum/export",
		Summary:     "Export the current spectrum as CSV",
		Tags:        []string{"Export"},
	}, spectrumHandler.ExportSpectrum)

	// Recording routes
	huma.Register(api, huma.Operation{
		OperationID: "startRecording",
		Method:      http.MethodPost,
		Path:        "/api/recordings",
		Summary:     "Start a recording session",
		Description: "Begins sampling the running spectrum on a timer",
		Tags:        []string{"Recording"},
	}, recordingHandler.StartRecording)

	huma.Register(api, huma.Operation{
		OperationID: "stopRecording",
		Method:      http.MethodPost,
		Path:        "/api/recordings/stop",
		Summary:     "Stop the active recording session",
		Description: "Halts sampling, stores the session CSV and returns the finalized session",
		Tags:        []string{"Recording"},
	}, recordingHandler.StopRecording)

	huma.Register(api, huma.Operation{
		OperationID: "listRecordings",
		Method:      http.MethodGet,
		Path:        "/api/recordings",
		Summary:     "List recording sessions",
		Tags:        []string{"Recording"},
	}, recordingHandler.ListSessions)

	huma.Register(api, huma.Operation{
		OperationID: "getRecording",
		Method:      http.MethodGet,
		Path:        "/api/recordings/{id}",
		Summary:     "Get a recording session",
		Tags:        []string{"Recording"},
	}, recordingHandler.GetSession)

	huma.Register(api, huma.Operation{
		OperationID: "getRecordingDownload",
		Method:      http.MethodGet,
		Path:        "/api/recordings/{id}/download",
		Summary:     "Get a download URL for a recording",
		Description: "Returns a pre-signed URL for the session's stored CSV",
		Tags:        []string{"Recording"},
	}, recordingHandler.GetSessionDownload)
}
