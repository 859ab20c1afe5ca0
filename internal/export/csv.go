package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// ErrNoData is returned when an export is requested with nothing
// captured. No partial file is ever produced.
var ErrNoData = errors.New("export: no data")

// CSV column headers. Consumers parse on these names, so they are part
// of the wire contract.
var (
	spectrumHeader  = []string{"Pixel Position", "Wavelength (nm)", "Raw Intensity (0-1)", "QE Corrected Intensity (0-1)"}
	recordingHeader = []string{"Timestamp (ms)", "Wavelength (nm)", "Raw Intensity", "Corrected Intensity"}
)

// SpectrumCSV serializes the current spectrum, one row per pixel.
// Wavelengths are written with 2 decimals, intensities with 6; full
// precision is kept internally and rounded only here.
func SpectrumCSV(frame *models.SpectralFrame, wavelengths []float64) ([]byte, error) {
	if frame == nil || len(frame.Raw) == 0 || len(frame.Corrected) == 0 {
		return nil, ErrNoData
	}
	if len(frame.Raw) != len(frame.Corrected) || len(frame.Raw) != len(wavelengths) {
		return nil, fmt.Errorf("export: misaligned spectrum arrays (%d raw, %d corrected, %d wavelengths)",
			len(frame.Raw), len(frame.Corrected), len(wavelengths))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(spectrumHeader); err != nil {
		return nil, err
	}
	for i := range frame.Raw {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(wavelengths[i], 'f', 2, 64),
			strconv.FormatFloat(frame.Raw[i], 'f', 6, 64),
			strconv.FormatFloat(frame.Corrected[i], 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RecordingCSV serializes an entire recording session, one row per
// sample point per recorded frame.
func RecordingCSV(frames []models.RecordedFrame) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrNoData
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(recordingHeader); err != nil {
		return nil, err
	}
	for _, frame := range frames {
		ts := strconv.FormatInt(frame.TimestampMs, 10)
		for i := range frame.Wavelengths {
			row := []string{
				ts,
				strconv.FormatFloat(frame.Wavelengths[i], 'f', 2, 64),
				strconv.FormatFloat(frame.RawIntensities[i], 'f', 6, 64),
				strconv.FormatFloat(frame.CorrectedIntensities[i], 'f', 6, 64),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// filenameTimeLayout keeps export names sortable and filesystem safe.
const filenameTimeLayout = "20060102_150405"

// SpectrumFilename returns a deterministic timestamped name for a
// spectrum export.
func SpectrumFilename(t time.Time) string {
	return "spectrum_" + t.UTC().Format(filenameTimeLayout) + ".csv"
}

// RecordingFilename returns a deterministic timestamped name for a
// recording export.
func RecordingFilename(t time.Time) string {
	return "recording_" + t.UTC().Format(filenameTimeLayout) + ".csv"
}

// FrameImageFilename returns a deterministic timestamped name for a
// raw frame snapshot with the encoder-provided extension.
func FrameImageFilename(t time.Time, ext string) string {
	return "frame_" + t.UTC().Format(filenameTimeLayout) + "." + ext
}

// ImageEncoder is the collaborator that turns a raw frame into encoded
// image bytes. The core never encodes image formats itself.
type ImageEncoder interface {
	Encode(frame *models.Frame) (data []byte, ext string, err error)
}

// FrameImage encodes a frame snapshot through the collaborator and
// attaches its deterministic filename.
func FrameImage(enc ImageEncoder, frame *models.Frame, now time.Time) (string, []byte, error) {
	if frame == nil || len(frame.Pixels) == 0 {
		return "", nil, ErrNoData
	}
	data, ext, err := enc.Encode(frame)
	if err != nil {
		return "", nil, fmt.Errorf("encode frame image: %w", err)
	}
	return FrameImageFilename(now, ext), data, nil
}
