package domain

import "math"

// Magnus coefficients used by the dew point helpers.
const (
	magnusA = 17.27
	magnusB = 237.7
)

// DewPointFromVaporPressure returns the dew point (°C) for vapour pressure e (hPa).
func DewPointFromVaporPressure(e float64) float64 {
	alpha := math.Log(e / 6.1078)
	return magnusB * alpha / (magnusA - alpha)
}

// DewPointFromTemperatureAndHumidity returns the dew point (°C) for temperature t (°C)
// and relative humidity rh (%).
func DewPointFromTemperatureAndHumidity(t, rh float64) float64 {
	gamma := math.Log(rh/100) + magnusA*t/(magnusB+t)
	return magnusB * gamma / (magnusA - gamma)
}
