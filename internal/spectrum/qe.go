package spectrum

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// ProfileKind identifies a quantum-efficiency profile variant.
type ProfileKind string

const (
	ProfileNone      ProfileKind = "none"
	ProfileGenerated ProfileKind = "generated"
	ProfileCustom    ProfileKind = "custom"
)

// ErrInvalidProfile is returned for custom profiles with fewer than two
// points or non-increasing wavelengths.
var ErrInvalidProfile = errors.New("spectrum: invalid QE profile")

// Gaussian model parameters for the generated monochrome CMOS profile.
const (
	generatedPeakNm  = 550.0
	generatedWidthNm = 100.0
)

// Profile is a per-wavelength sensitivity correction. Points are sorted
// by ascending wavelength; the none variant carries no points.
type Profile struct {
	Kind   ProfileKind
	Points []models.QEPoint
}

// NoneProfile returns the identity profile.
func NoneProfile() Profile {
	return Profile{Kind: ProfileNone}
}

// GeneratedProfile returns a synthetic monochrome CMOS response,
// QE(w) = exp(-((w-550)^2)/(2*100^2)), sampled every 10 nm over the
// visible and near-IR band.
func GeneratedProfile() Profile {
	points := make([]models.QEPoint, 0, 81)
	for w := 300.0; w <= 1100.0; w += 10.0 {
		d := w - generatedPeakNm
		points = append(points, models.QEPoint{
			WavelengthNm: w,
			Efficiency:   math.Exp(-(d * d) / (2 * generatedWidthNm * generatedWidthNm)),
		})
	}
	return Profile{Kind: ProfileGenerated, Points: points}
}

// CustomProfile builds a profile from caller-supplied control points.
func CustomProfile(points []models.QEPoint) (Profile, error) {
	if len(points) < 2 {
		return Profile{}, ErrInvalidProfile
	}
	for i := 1; i < len(points); i++ {
		if points[i].WavelengthNm <= points[i-1].WavelengthNm {
			return Profile{}, ErrInvalidProfile
		}
	}
	for _, p := range points {
		if !isFinite(p.WavelengthNm) || !isFinite(p.Efficiency) || p.Efficiency < 0 {
			return Profile{}, ErrInvalidProfile
		}
	}
	return Profile{Kind: ProfileCustom, Points: points}, nil
}

// LoadProfileCSV reads a custom profile from a two-column CSV with the
// header "Wavelength (nm),Quantum Efficiency".
func LoadProfileCSV(r io.Reader) (Profile, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return Profile{}, fmt.Errorf("read QE profile: %w", err)
	}
	if len(records) < 3 {
		return Profile{}, ErrInvalidProfile
	}
	if len(records[0]) != 2 || records[0][0] != "Wavelength (nm)" || records[0][1] != "Quantum Efficiency" {
		return Profile{}, fmt.Errorf("unexpected QE profile header: %v", records[0])
	}

	points := make([]models.QEPoint, 0, len(records)-1)
	for _, rec := range records[1:] {
		w, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return Profile{}, fmt.Errorf("parse wavelength %q: %w", rec[0], err)
		}
		e, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return Profile{}, fmt.Errorf("parse efficiency %q: %w", rec[1], err)
		}
		points = append(points, models.QEPoint{WavelengthNm: w, Efficiency: e})
	}
	return CustomProfile(points)
}

// Efficiency returns the correction factor at a wavelength, linearly
// interpolated between the two bracketing control points and clamped to
// the nearest endpoint outside the profile's domain. The none profile
// returns 1 unconditionally.
func (p Profile) Efficiency(wavelength float64) float64 {
	if p.Kind == ProfileNone || len(p.Points) == 0 {
		return 1
	}
	pts := p.Points
	if wavelength <= pts[0].WavelengthNm {
		return pts[0].Efficiency
	}
	if wavelength >= pts[len(pts)-1].WavelengthNm {
		return pts[len(pts)-1].Efficiency
	}
	for i := 1; i < len(pts); i++ {
		if wavelength <= pts[i].WavelengthNm {
			lo, hi := pts[i-1], pts[i]
			t := (wavelength - lo.WavelengthNm) / (hi.WavelengthNm - lo.WavelengthNm)
			return lo.Efficiency + t*(hi.Efficiency-lo.Efficiency)
		}
	}
	return pts[len(pts)-1].Efficiency
}

// Correct applies the profile to one raw intensity sample.
func (p Profile) Correct(wavelength, rawIntensity float64) float64 {
	return rawIntensity * p.Efficiency(wavelength)
}
