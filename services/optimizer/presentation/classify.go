package presentation

// Classification is the color class of a suggested threshold cell
type Classification string

// Classifications of a suggested threshold
const (
	ClassNone     Classification = ""
	ClassNormal   Classification = "normal"
	ClassCritical Classification = "critical"
)

// Display colors
const (
	NormalColor   = "rgb(17, 166, 0)"
	CriticalColor = "rgb(191, 0, 22)"
	LinkColor     = "rgb(0, 121, 191)"
)

// Classify compares a suggested threshold with the side's default threshold.
// The comparison is inclusive: a suggestion equal to the default is normal.
func Classify(suggested *float64, defaultApdexT float64) Classification {
	if suggested == nil {
		return ClassNone
	}
	if *suggested <= defaultApdexT {
		return ClassNormal
	}

	return ClassCritical
}

// Color returns the CSS color of the classification, empty for ClassNone
func (c Classification) Color() string {
	switch c {
	case ClassNormal:
		return NormalColor
	case ClassCritical:
		return CriticalColor
	default:
		return ""
	}
}
