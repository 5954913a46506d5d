package market

import "errors"

// Sentinel errors shared by the analysis pipeline.
var (
	// ErrInsufficientData means fewer candles were available than an
	// indicator or the analysis as a whole requires. Inputs are never
	// silently padded.
	ErrInsufficientData = errors.New("insufficient candle data")

	// ErrUnsupportedInstrument is returned when a pair is not in the
	// configured allow-list.
	ErrUnsupportedInstrument = errors.New("unsupported instrument")

	// ErrUnsupportedInterval is returned when an interval is not in the
	// configured allow-list.
	ErrUnsupportedInterval = errors.New("unsupported interval")
)
