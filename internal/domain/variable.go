package domain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// VariableDescriptor describes one SILO climate variable.
type VariableDescriptor struct {
	Name       string // canonical name, unique
	Code       string // SILO single-letter code, empty for derived variables
	NetCDFName string
	Label      string
	Unit       string
	StartYear  int
	Column     Column
}

// HasCode reports whether the variable can be requested from SILO by code.
func (v VariableDescriptor) HasCode() bool { return v.Code != "" }

const defaultStartYear = 1889

var variables = []VariableDescriptor{
	{Name: "daily_rain", Code: "R", NetCDFName: "daily_rain", Label: "Daily rainfall", Unit: "mm", Column: ColDailyRain},
	{Name: "monthly_rain", NetCDFName: "monthly_rain", Label: "Monthly rainfall", Unit: "mm", Column: ColMonthlyRain},
	{Name: "max_temp", Code: "X", NetCDFName: "max_temp", Label: "Maximum temperature", Unit: "°C", Column: ColMaxTemp},
	{Name: "min_temp", Code: "N", NetCDFName: "min_temp", Label: "Minimum temperature", Unit: "°C", Column: ColMinTemp},
	{Name: "vp", Code: "V", NetCDFName: "vp", Label: "Vapour pressure", Unit: "hPa", Column: ColVP},
	{Name: "vp_deficit", Code: "D", NetCDFName: "vp_deficit", Label: "Vapour pressure deficit", Unit: "hPa", Column: ColVPDeficit},
	{Name: "rh_tmax", Code: "H", NetCDFName: "rh_tmax", Label: "Relative humidity at time of maximum temperature", Unit: "%", Column: ColRHTmax},
	{Name: "rh_tmin", Code: "G", NetCDFName: "rh_tmin", Label: "Relative humidity at time of minimum temperature", Unit: "%", Column: ColRHTmin},
	{Name: "mslp", Code: "M", NetCDFName: "mslp", Label: "Mean sea level pressure", Unit: "hPa", StartYear: 1957, Column: ColMSLP},
	{Name: "evap_pan", Code: "E", NetCDFName: "evap_pan", Label: "Class A pan evaporation", Unit: "mm", StartYear: 1970, Column: ColEvapPan},
	{Name: "evap_syn", Code: "S", NetCDFName: "evap_syn", Label: "Synthetic estimate of pan evaporation", Unit: "mm", Column: ColEvapSyn},
	{Name: "evap_comb", Code: "C", NetCDFName: "evap_comb", Label: "Combination of synthetic and observed pan evaporation", Unit: "mm", Column: ColEvapComb},
	{Name: "evap_morton_lake", Code: "L", NetCDFName: "evap_morton_lake", Label: "Morton's shallow lake evaporation", Unit: "mm", Column: ColEvapMortonLake},
	{Name: "radiation", Code: "J", NetCDFName: "radiation", Label: "Solar exposure (direct and diffuse)", Unit: "MJ/m²", Column: ColRadiation},
	{Name: "et_short_crop", Code: "F", NetCDFName: "et_short_crop", Label: "FAO56 short crop evapotranspiration", Unit: "mm", Column: ColETShortCrop},
	{Name: "et_tall_crop", Code: "T", NetCDFName: "et_tall_crop", Label: "ASCE tall crop evapotranspiration", Unit: "mm", Column: ColETTallCrop},
	{Name: "et_morton_actual", Code: "A", NetCDFName: "et_morton_actual", Label: "Morton's areal actual evapotranspiration", Unit: "mm", Column: ColETMortonActual},
	{Name: "et_morton_potential", Code: "P", NetCDFName: "et_morton_potential", Label: "Morton's point potential evapotranspiration", Unit: "mm", Column: ColETMortonPotential},
	{Name: "et_morton_wet", Code: "W", NetCDFName: "et_morton_wet", Label: "Morton's wet-environment areal potential evapotranspiration", Unit: "mm", Column: ColETMortonWet},
}

var presets = map[string][]string{
	"daily":       {"daily_rain", "max_temp", "min_temp", "evap_syn"},
	"monthly":     {"monthly_rain"},
	"temperature": {"max_temp", "min_temp"},
	"evaporation": {"evap_pan", "evap_syn", "evap_comb"},
	"radiation":   {"radiation"},
	"humidity":    {"vp", "vp_deficit", "rh_tmax", "rh_tmin"},
}

// historicalOnly lists variables that met.no never provides.
var historicalOnly = []string{
	"evap_pan", "evap_syn", "evap_comb", "evap_morton_lake",
	"radiation",
	"et_short_crop", "et_tall_crop", "et_morton_actual", "et_morton_potential", "et_morton_wet",
	"vp_deficit", "rh_tmax", "rh_tmin",
}

var (
	variablesByName = make(map[string]VariableDescriptor, len(variables))
	variablesByCode = make(map[string]VariableDescriptor, len(variables))
)

func init() {
	for i := range variables {
		if variables[i].StartYear == 0 {
			variables[i].StartYear = defaultStartYear
		}
		v := variables[i]
		variablesByName[v.Name] = v
		if v.Code != "" {
			variablesByCode[v.Code] = v
		}
	}
}

// Resolve looks up a variable by canonical name or SILO code. Unknown identifiers
// return ok == false.
func Resolve(id string) (VariableDescriptor, bool) {
	if v, ok := variablesByName[id]; ok {
		return v, true
	}
	v, ok := variablesByCode[id]
	return v, ok
}

// Expand replaces preset names with their variable lists and passes every other item
// through. Results are concatenated in input order without deduplication.
func Expand(items ...string) []string {
	var out []string
	for _, item := range items {
		if vars, ok := presets[item]; ok {
			out = append(out, vars...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// ExpandStrict is Expand for request validation: every non-preset item must resolve.
func ExpandStrict(items ...string) ([]string, error) {
	out := Expand(items...)
	for _, name := range out {
		if _, ok := Resolve(name); !ok {
			return nil, fmt.Errorf("%w %q: valid variables are %s; valid presets are %s",
				ErrUnknownVariable, name, strings.Join(VariableNames(), ", "), strings.Join(PresetNames(), ", "))
		}
	}
	return out, nil
}

// SiloCodeOf returns the SILO code for a canonical name.
func SiloCodeOf(name string) (string, bool) {
	v, ok := variablesByName[name]
	if !ok || v.Code == "" {
		return "", false
	}
	return v.Code, true
}

// CanonicalNameOf returns the canonical name for a SILO code.
func CanonicalNameOf(code string) (string, bool) {
	v, ok := variablesByCode[code]
	if !ok {
		return "", false
	}
	return v.Name, true
}

// Variables returns all registry entries in registry order.
func Variables() []VariableDescriptor {
	return slices.Clone(variables)
}

// VariableNames returns every canonical name in registry order.
func VariableNames() []string {
	out := make([]string, len(variables))
	for i, v := range variables {
		out[i] = v.Name
	}
	return out
}

// PresetNames returns the preset names, sorted.
func PresetNames() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Preset returns a copy of a preset's variable list.
func Preset(name string) ([]string, bool) {
	vars, ok := presets[name]
	return slices.Clone(vars), ok
}

// HistoricalOnly returns the variables that only the historical source provides.
func HistoricalOnly() []string {
	return slices.Clone(historicalOnly)
}

// IsHistoricalOnly reports whether name is only available from the historical source.
func IsHistoricalOnly(name string) bool {
	return slices.Contains(historicalOnly, name)
}

// CheckAvailability fails when data for a variable is requested from before its
// first year of coverage.
func CheckAvailability(id string, fromYear int) error {
	v, ok := Resolve(id)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownVariable, id)
	}
	if fromYear < v.StartYear {
		return fmt.Errorf("%w: %s starts in %d, requested %d", ErrBeforeStartYear, v.Name, v.StartYear, fromYear)
	}
	return nil
}

// SiloColumnOrder returns the standard column order for a SILO-style table.
func SiloColumnOrder() []Column {
	out := []Column{ColDate, ColDay, ColYear}
	for _, v := range variables {
		out = append(out, v.Column)
	}
	return out
}

// CodesFor returns the concatenated SILO codes for the given variables, as used by
// the SILO "comment" request parameter. Variables without a code are skipped.
func CodesFor(names []string) string {
	var b strings.Builder
	for _, n := range names {
		if code, ok := SiloCodeOf(n); ok {
			b.WriteString(code)
		}
	}
	return b.String()
}
