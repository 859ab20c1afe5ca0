package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// GetSpectrumResponseBody is the body of the spectrum snapshot response
type GetSpectrumResponseBody struct {
	SensorRange          SensorRange  `json:"sensor_range" doc:"Wavelength interval covered by the sensor"`
	DisplayRange         DisplayRange `json:"display_range" doc:"Currently visible wavelength window"`
	Calibration          Calibration  `json:"calibration"`
	ROI                  ROI          `json:"roi"`
	Reversed             bool         `json:"reversed" doc:"Whether the wavelength axis is drawn reversed"`
	ShowCalibrationLines bool         `json:"show_calibration_lines"`
	Paused               bool         `json:"paused"`
	QEProfile            string       `json:"qe_profile" enum:"none,generated,custom" doc:"Active quantum-efficiency profile"`
	Wavelengths          []float64    `json:"wavelengths" doc:"Wavelength per spectrum index"`
	Raw                  []float64    `json:"raw" doc:"Raw intensities, normalized 0-1"`
	Corrected            []float64    `json:"corrected" doc:"QE-corrected intensities"`
}

// GetSpectrumResponse is the full pipeline snapshot handed to renderers
type GetSpectrumResponse struct {
	Body GetSpectrumResponseBody
}

// SetCalibrationRequest replaces the two-point wavelength calibration
type SetCalibrationRequest struct {
	Body Calibration
}

// SetCalibrationResponse returns the sensor range under the new calibration
type SetCalibrationResponse struct {
	Body struct {
		SensorRange SensorRange `json:"sensor_range"`
	}
}

// SetDisplayRangeRequest sets the visible wavelength window explicitly
type SetDisplayRangeRequest struct {
	Body DisplayRange
}

// DisplayRangeResponse returns the display range after a view transition
type DisplayRangeResponse struct {
	Body DisplayRange
}

// ZoomRequest zooms the view about the cursor position
type ZoomRequest struct {
	Body struct {
		CursorX     int     `json:"cursor_x" minimum:"0" required:"true" doc:"Cursor position in view pixels"`
		ViewWidth   int     `json:"view_width" minimum:"1" required:"true" doc:"Width of the rendered view in pixels"`
		ScrollDelta float64 `json:"scroll_delta" required:"true" doc:"Positive zooms out, negative zooms in"`
	}
}

// HoverRequest asks for the spectrum values under a cursor position
type HoverRequest struct {
	CursorX   int `query:"cursor_x" doc:"Cursor position in view pixels"`
	ViewWidth int `query:"view_width" doc:"Width of the rendered view in pixels"`
}

// HoverResponseBody is the body of the hover info response
type HoverResponseBody struct {
	WavelengthNm       float64 `json:"wavelength_nm"`
	RawIntensity       float64 `json:"raw_intensity"`
	CorrectedIntensity float64 `json:"corrected_intensity"`
	Index              int     `json:"index" doc:"Spectrum index under the cursor"`
	OK                 bool    `json:"ok" doc:"False when the cursor maps outside the spectrum"`
}

// HoverResponse returns the spectrum values under the cursor
type HoverResponse struct {
	Body HoverResponseBody
}

// PeakRequest asks for the nearest peak to a cursor position
type PeakRequest struct {
	CursorX   int `query:"cursor_x" doc:"Cursor position in view pixels"`
	ViewWidth int `query:"view_width" doc:"Width of the rendered view in pixels"`
}

// PeakResponseBody is the body of the peak query response
type PeakResponseBody struct {
	Index        int     `json:"index" doc:"Spectrum index of the result"`
	WavelengthNm float64 `json:"wavelength_nm"`
	Intensity    float64 `json:"intensity"`
	IsPeak       bool    `json:"is_peak" doc:"False when no qualifying peak was found in the search window"`
}

// PeakResponse returns the nearest qualifying peak
type PeakResponse struct {
	Body PeakResponseBody
}

// SetReversedRequest flips the wavelength axis direction
type SetReversedRequest struct {
	Body struct {
		Reversed bool `json:"reversed"`
	}
}

// SetCalibrationLinesRequest toggles calibration line overlays
type SetCalibrationLinesRequest struct {
	Body struct {
		Show bool `json:"show"`
	}
}

// SetROIRequest replaces the extraction region
type SetROIRequest struct {
	Body ROI
}

// SetQEProfileRequest selects the active quantum-efficiency profile
type SetQEProfileRequest struct {
	Body struct {
		Kind   string    `json:"kind" enum:"none,generated,custom" required:"true" doc:"Profile variant"`
		Points []QEPoint `json:"points,omitempty" doc:"Control points, required for the custom variant"`
	}
}

// ViewFlagsResponse reports the axis and overlay flags after a toggle
type ViewFlagsResponse struct {
	Body struct {
		Reversed             bool `json:"reversed"`
		ShowCalibrationLines bool `json:"show_calibration_lines"`
	}
}

// MessageResponse carries a simple confirmation message
type MessageResponse struct {
	Body struct {
		Message string `json:"message" doc:"Confirmation message"`
	}
}

// PauseResponse reports the pipeline pause state after a pause/resume
type PauseResponse struct {
	Body struct {
		Paused bool `json:"paused"`
	}
}

// UploadImageRequest runs a single pipeline pass over an uploaded image
type UploadImageRequest struct {
	Body struct {
		Data []byte `json:"data" required:"true" doc:"Base64-encoded PNG or JPEG file"`
	}
}

// StartRecordingRequest begins a timed recording session. Unset fields
// fall back to the configured recording defaults.
type StartRecordingRequest struct {
	Body struct {
		IntervalMs int   `json:"interval_ms,omitempty" minimum:"0" doc:"Sampling interval in milliseconds; 0 uses the configured default"`
		CaptureRaw *bool `json:"capture_raw,omitempty" doc:"Also capture the raw frame stream"`
	}
}

// StartRecordingResponse returns the new session identifier
type StartRecordingResponse struct {
	Body struct {
		SessionID string    `json:"session_id"`
		StartedAt time.Time `json:"started_at"`
	}
}

// StopRecordingResponse returns the finalized session
type StopRecordingResponse struct {
	Body RecordingSession
}

// GetSessionResponse returns one recording session
type GetSessionResponse struct {
	Body RecordingSession
}

// ListSessionsResponse lists past recording sessions
type ListSessionsResponse struct {
	Body struct {
		Sessions []RecordingSession `json:"sessions"`
	}
}

// GetSessionRequest fetches one recording session
type GetSessionRequest struct {
	ID string `path:"id" doc:"Session ID"`
}

// SessionDownloadResponse returns a pre-signed URL for a session artifact
type SessionDownloadResponse struct {
	Body struct {
		URL       string `json:"url" doc:"Pre-signed download URL"`
		ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
	}
}

// ExportResponseBody is the body of an export response
type ExportResponseBody struct {
	Filename string `json:"filename"`
	Key      string `json:"key" doc:"Object storage key of the exported artifact"`
	URL      string `json:"url" doc:"Pre-signed download URL"`
}

// ExportResponse returns the stored export artifact location
type ExportResponse struct {
	Body ExportResponseBody
}
