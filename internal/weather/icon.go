package weather

// Icon is the renderable category for a condition code.
type Icon string

const (
	IconNone        Icon = "none"
	IconStorm       Icon = "storm"
	IconLightRain   Icon = "light_rain"
	IconRain        Icon = "rain"
	IconSnow        Icon = "snow"
	IconFog         Icon = "fog"
	IconClear       Icon = "clear"
	IconLightClouds Icon = "light_clouds"
	IconCloudy      Icon = "cloudy"
)

// AllIcons lists every drawable icon, None excluded.
func AllIcons() []Icon {
	return []Icon{
		IconStorm,
		IconLightRain,
		IconRain,
		IconSnow,
		IconFog,
		IconClear,
		IconLightClouds,
		IconCloudy,
	}
}

// AssetName is the bitmap file backing the icon, empty for None.
func (i Icon) AssetName() string {
	if i == IconNone || i == "" {
		return ""
	}
	return "ic_" + string(i) + ".png"
}

type codeRange struct {
	lo, hi int
	icon   Icon
}

// Evaluated top to bottom and the last matching row wins, so 761 (also inside
// the fog range) resolves to storm.
var iconTable = []codeRange{
	{200, 232, IconStorm},
	{300, 321, IconLightRain},
	{500, 504, IconRain},
	{511, 511, IconSnow},
	{520, 531, IconRain},
	{600, 622, IconSnow},
	{701, 761, IconFog},
	{761, 761, IconStorm},
	{781, 781, IconStorm},
	{800, 800, IconClear},
	{801, 801, IconLightClouds},
	{802, 804, IconCloudy},
}

// IconForCode maps an OpenWeatherMap condition id to an icon. Unknown ids,
// including zero and negatives, map to IconNone.
func IconForCode(code int) Icon {
	icon := IconNone
	for _, r := range iconTable {
		if code >= r.lo && code <= r.hi {
			icon = r.icon
		}
	}
	return icon
}
