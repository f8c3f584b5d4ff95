package geo

import "math"

const webMercatorOriginShift = 20037508.342789244 // 2 * pi * 6378137 / 2

// ToEPSG3857. spherical web mercator (x, y) in meters.
func ToEPSG3857(lat, lon float64) (float64, float64) {
	x := lon * webMercatorOriginShift / 180.0
	y := math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * webMercatorOriginShift / 180.0
	return x, y
}
