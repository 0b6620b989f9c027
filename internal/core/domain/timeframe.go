package domain

// Timeframe parameterises dashboard statistics.
type Timeframe string

const (
	Timeframe1Month  Timeframe = "1month"
	Timeframe3Months Timeframe = "3months"
	Timeframe6Months Timeframe = "6months"
	Timeframe1Year   Timeframe = "1year"
)

// Valid reports whether t is one of the supported windows.
func (t Timeframe) Valid() bool {
	switch t {
	case Timeframe1Month, Timeframe3Months, Timeframe6Months, Timeframe1Year:
		return true
	}
	return false
}
